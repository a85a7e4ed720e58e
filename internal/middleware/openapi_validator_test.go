package middleware

import (
	"strings"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadSpec(t *testing.T) *openapi3.T {
	t.Helper()

	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = true

	doc, err := loader.LoadFromFile("../../artifacts/openapi.yaml")
	require.NoError(t, err, "Failed to load OpenAPI spec")
	require.NoError(t, doc.Validate(loader.Context), "OpenAPI spec validation failed")
	return doc
}

func TestOpenAPISpecIsValid(t *testing.T) {
	doc := loadSpec(t)

	assert.Equal(t, "Village Chat API", doc.Info.Title)
	assert.Equal(t, "1.0.0", doc.Info.Version)
	assert.NotEmpty(t, doc.Servers, "At least one server should be defined")
}

func TestAllRoutesAreDocumentedInOpenAPI(t *testing.T) {
	doc := loadSpec(t)

	implementedRoutes := []struct {
		method string
		path   string
	}{
		{"POST", "/auth/signup"},
		{"POST", "/auth/login"},
		{"GET", "/auth/me"},

		{"GET", "/participants/admins"},
		{"GET", "/participants/users"},
		{"GET", "/participants/{id}"},

		{"POST", "/messages"},
		{"GET", "/messages"},

		{"GET", "/villages"},
		{"POST", "/villages"},
		{"GET", "/villages/{id}"},
		{"PUT", "/villages/{id}"},
		{"DELETE", "/villages/{id}"},
		{"PATCH", "/villages/{id}/demographics"},

		{"GET", "/health"},
		{"GET", "/health/ready"},
	}

	for _, route := range implementedRoutes {
		t.Run(route.method+" "+route.path, func(t *testing.T) {
			pathItem := doc.Paths.Find(route.path)
			require.NotNil(t, pathItem, "Path not found in OpenAPI spec: %s", route.path)

			operation := pathItem.GetOperation(route.method)
			require.NotNil(t, operation, "Operation not found in OpenAPI spec: %s %s", route.method, route.path)

			assert.NotEmpty(t, operation.OperationID, "OperationID should be set")
			assert.NotEmpty(t, operation.Tags, "Tags should be set")
			assert.NotEmpty(t, operation.Responses, "Responses should be defined")
		})
	}
}

func TestOpenAPISecuritySchemes(t *testing.T) {
	doc := loadSpec(t)

	require.NotNil(t, doc.Components.SecuritySchemes, "Security schemes should be defined")

	bearerAuth := doc.Components.SecuritySchemes["bearerAuth"]
	require.NotNil(t, bearerAuth, "bearerAuth security scheme should exist")
	assert.Equal(t, "http", bearerAuth.Value.Type)
	assert.Equal(t, "bearer", bearerAuth.Value.Scheme)
}

func TestOpenAPISchemas(t *testing.T) {
	doc := loadSpec(t)

	requiredSchemas := []string{
		"SignupRequest",
		"LoginRequest",
		"LoginResponse",
		"Participant",
		"ErrorResponse",
		"SendMessageRequest",
		"Message",
		"HistoryResponse",
		"Village",
		"DemographicRequest",
	}

	for _, schemaName := range requiredSchemas {
		schema := doc.Components.Schemas[schemaName]
		assert.NotNil(t, schema, "Schema should exist: %s", schemaName)
	}
}

func TestProtectedRoutesHaveAuth(t *testing.T) {
	doc := loadSpec(t)

	protectedRoutes := []struct {
		method string
		path   string
	}{
		{"GET", "/auth/me"},
		{"GET", "/participants/admins"},
		{"POST", "/messages"},
		{"GET", "/messages"},
		{"POST", "/villages"},
		{"PATCH", "/villages/{id}/demographics"},
	}

	for _, route := range protectedRoutes {
		t.Run(route.method+" "+route.path, func(t *testing.T) {
			pathItem := doc.Paths.Find(route.path)
			require.NotNil(t, pathItem)

			operation := pathItem.GetOperation(route.method)
			require.NotNil(t, operation)

			require.NotEmpty(t, operation.Security, "Protected route should have security requirement: %s %s", route.method, route.path)

			hasBearerAuth := false
			for _, secReq := range *operation.Security {
				if _, ok := secReq["bearerAuth"]; ok {
					hasBearerAuth = true
					break
				}
			}
			assert.True(t, hasBearerAuth, "Protected route should use bearerAuth: %s %s", route.method, route.path)
		})
	}
}

func TestPublicRoutesNoAuth(t *testing.T) {
	doc := loadSpec(t)

	publicRoutes := []struct {
		method string
		path   string
	}{
		{"POST", "/auth/signup"},
		{"POST", "/auth/login"},
		{"GET", "/health"},
		{"GET", "/health/ready"},
	}

	for _, route := range publicRoutes {
		t.Run(route.method+" "+route.path, func(t *testing.T) {
			pathItem := doc.Paths.Find(route.path)
			require.NotNil(t, pathItem)

			operation := pathItem.GetOperation(route.method)
			require.NotNil(t, operation)

			if operation.Security != nil {
				assert.Empty(t, *operation.Security, "Public route should not have security requirement: %s %s", route.method, route.path)
			}
		})
	}
}

func TestShouldSkipPath(t *testing.T) {
	skipPaths := []string{
		"/health",
		"/health/ready",
		"/metrics",
		"/ws/messages",
	}

	tests := []struct {
		path     string
		expected bool
	}{
		{"/health", true},
		{"/health/ready", true},
		{"/metrics", true},
		{"/ws/messages", true},
		{"/api/v1/messages", false},
		{"/api/v1/auth/login", false},
		{"/api/v1/villages", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			result := shouldSkipPath(tt.path, skipPaths)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestDefaultOpenAPIValidatorConfig(t *testing.T) {
	config := DefaultOpenAPIValidatorConfig()

	assert.NotNil(t, config)
	assert.Equal(t, "artifacts/openapi.yaml", config.SpecPath)
	assert.True(t, config.ValidateRequests, "Should validate requests by default")
	assert.False(t, config.ValidateResponses, "Should not validate responses by default (performance)")
	assert.NotEmpty(t, config.SkipPaths, "Should have skip paths configured")

	skipPathsStr := strings.Join(config.SkipPaths, ",")
	assert.Contains(t, skipPathsStr, "/health")
	assert.Contains(t, skipPathsStr, "/metrics")
	assert.Contains(t, skipPathsStr, "/ws/messages")
}

func TestOpenAPIMiddlewareWithInvalidSpec(t *testing.T) {
	config := &OpenAPIValidatorConfig{
		Enabled:  true,
		SpecPath: "/nonexistent/path/to/spec.yaml",
	}

	// Should not panic, just return no-op middleware
	middleware := OpenAPIValidator(config)
	assert.NotNil(t, middleware)
}

func TestOpenAPIMiddlewareDisabled(t *testing.T) {
	config := &OpenAPIValidatorConfig{
		Enabled: false,
	}

	middleware := OpenAPIValidator(config)
	assert.NotNil(t, middleware)
}

func TestOpenAPIResponseCodes(t *testing.T) {
	doc := loadSpec(t)

	pathItem := doc.Paths.Find("/auth/signup")
	require.NotNil(t, pathItem)

	operation := pathItem.GetOperation("POST")
	require.NotNil(t, operation)

	assert.NotNil(t, operation.Responses.Status(201), "Signup should return 201 on success")
	assert.NotNil(t, operation.Responses.Status(400), "Signup should return 400 on invalid input")
	assert.NotNil(t, operation.Responses.Status(409), "Signup should return 409 on conflict")
}
