package swagger_test

import (
	"encoding/json"
	"testing"

	"scanmate/docs/swagger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag"
)

func TestSwaggerInfoRegistered(t *testing.T) {
	doc, err := swag.ReadDoc(swagger.SwaggerInfo.InstanceName())
	require.NoError(t, err)

	var parsed struct {
		Info struct {
			Title string `json:"title"`
		} `json:"info"`
		Paths map[string]map[string]any `json:"paths"`
	}
	require.NoError(t, json.Unmarshal([]byte(doc), &parsed))

	assert.Equal(t, "Scanmate API", parsed.Info.Title)
	assert.Contains(t, parsed.Paths["/scans"], "post")
	assert.Contains(t, parsed.Paths["/sales/{barcode}"], "get")
	assert.Contains(t, parsed.Paths["/sales/import"], "post")
}
