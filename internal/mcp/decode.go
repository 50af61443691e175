package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/objdb/internal/errors"
)

// decode binds the tool arguments to a request struct. Arguments of the
// wrong JSON type surface as INVALID_REQUEST.
func decode[T any](req mcp.CallToolRequest) (T, error) {
	var in T
	if err := req.BindArguments(&in); err != nil {
		return in, errors.NewInvalidRequest("invalid arguments: " + err.Error())
	}
	return in, nil
}
