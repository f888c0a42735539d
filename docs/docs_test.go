package docs_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag"

	"github.com/jhoicas/Alquiler-api/docs"
)

func TestSwagger_RegistradoConRutasDePago(t *testing.T) {
	raw, err := swag.ReadDoc(docs.SwaggerInfo.InstanceName())
	require.NoError(t, err)

	var doc struct {
		Swagger string                    `json:"swagger"`
		Info    struct{ Title string }    `json:"info"`
		Paths   map[string]map[string]any `json:"paths"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	assert.Equal(t, "2.0", doc.Swagger)
	assert.Equal(t, "Alquiler API", doc.Info.Title)
	assert.Contains(t, doc.Paths, "/api/operations/{id}/payments")
	assert.Contains(t, doc.Paths["/api/operations/{id}/payments/{payment_id}/post"], "post")
	assert.Contains(t, doc.Paths["/api/sales"], "post")
}
