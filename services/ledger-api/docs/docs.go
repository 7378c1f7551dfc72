// Package docs registers the ledger-api OpenAPI document served under /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "{{.Title}}",
        "description": "{{.Description}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "paths": {
        "/auth/register": {"post": {"summary": "Register a user account", "tags": ["auth"], "responses": {"201": {"description": "token and user"}}}},
        "/auth/login": {"post": {"summary": "Exchange credentials for a bearer token", "tags": ["auth"], "responses": {"200": {"description": "token and user"}}}},
        "/auth/me": {
            "get": {"summary": "Current account", "tags": ["auth"], "security": [{"BearerAuth": []}], "responses": {"200": {"description": "user"}}},
            "put": {"summary": "Update own profile", "tags": ["auth"], "security": [{"BearerAuth": []}], "responses": {"200": {"description": "user"}}}
        },
        "/users": {"get": {"summary": "List accounts (admin)", "tags": ["users"], "security": [{"BearerAuth": []}], "responses": {"200": {"description": "users"}}}},
        "/users/{id}": {"put": {"summary": "Override status, role or balance (admin)", "tags": ["users"], "security": [{"BearerAuth": []}], "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "user"}}}},
        "/users/{id}/balance-adjustments": {"post": {"summary": "Apply a signed balance delta (admin)", "tags": ["users"], "security": [{"BearerAuth": []}], "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "user"}}}},
        "/transactions": {
            "get": {"summary": "List transactions (admin)", "tags": ["transactions"], "security": [{"BearerAuth": []}], "responses": {"200": {"description": "transactions"}}},
            "post": {"summary": "Submit a deposit, withdrawal or trade; honours Idempotency-Key", "tags": ["transactions"], "security": [{"BearerAuth": []}], "responses": {"200": {"description": "replayed"}, "201": {"description": "created"}}}
        },
        "/transactions/mine": {"get": {"summary": "Caller's transactions, newest first", "tags": ["transactions"], "security": [{"BearerAuth": []}], "responses": {"200": {"description": "transactions"}}}},
        "/transactions/{id}/approve": {"put": {"summary": "Approve a pending transaction (admin)", "tags": ["transactions"], "security": [{"BearerAuth": []}], "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "transaction"}}}},
        "/transactions/{id}/reject": {"put": {"summary": "Reject a pending transaction (admin)", "tags": ["transactions"], "security": [{"BearerAuth": []}], "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "transaction"}}}},
        "/wallets": {"get": {"summary": "Deposit destinations", "tags": ["wallets"], "responses": {"200": {"description": "wallets"}}}},
        "/wallets/{method}": {
            "get": {"summary": "Deposit destination for one method", "tags": ["wallets"], "parameters": [{"name": "method", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "wallet"}}},
            "put": {"summary": "Override a deposit destination (admin)", "tags": ["wallets"], "security": [{"BearerAuth": []}], "parameters": [{"name": "method", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "wallet"}}}
        },
        "/traders": {
            "get": {"summary": "Active traders, most followed first", "tags": ["catalog"], "responses": {"200": {"description": "traders"}}},
            "post": {"summary": "Create a trader (admin)", "tags": ["catalog"], "security": [{"BearerAuth": []}], "responses": {"201": {"description": "trader"}}}
        },
        "/plans": {
            "get": {"summary": "Active plans, cheapest first", "tags": ["catalog"], "responses": {"200": {"description": "plans"}}},
            "post": {"summary": "Create a plan (admin)", "tags": ["catalog"], "security": [{"BearerAuth": []}], "responses": {"201": {"description": "plan"}}}
        },
        "/copy-trades": {
            "get": {"summary": "Caller's copy positions", "tags": ["catalog"], "security": [{"BearerAuth": []}], "responses": {"200": {"description": "copyTrades"}}},
            "post": {"summary": "Copy a trader", "tags": ["catalog"], "security": [{"BearerAuth": []}], "responses": {"201": {"description": "copyTrade"}}}
        },
        "/copy-trades/{id}/stop": {"put": {"summary": "Stop a copy position", "tags": ["catalog"], "security": [{"BearerAuth": []}], "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "copyTrade"}}}},
        "/dashboard/stats": {"get": {"summary": "Caller's portfolio summary", "tags": ["stats"], "security": [{"BearerAuth": []}], "responses": {"200": {"description": "stats"}}}},
        "/admin/stats": {"get": {"summary": "Platform totals (admin)", "tags": ["stats"], "security": [{"BearerAuth": []}], "responses": {"200": {"description": "stats"}}}}
    }
}`

// SwaggerInfo holds the values substituted into the document; Host is left empty so the UI uses the serving host.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Copytrade Ledger API",
	Description:      "Accounts, deposits, withdrawals and admin approvals for the copy-trading brokerage.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
