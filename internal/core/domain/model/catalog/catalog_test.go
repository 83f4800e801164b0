package catalog_test

import (
	"testing"

	"pharmadelivery/internal/core/domain/model/catalog"
	"pharmadelivery/internal/core/domain/model/kernel"
	"pharmadelivery/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMedicine_Matches(t *testing.T) {
	m := catalog.Medicine{
		ID:         kernel.NewUUID(),
		PharmacyID: kernel.NewUUID(),
		Name:       "Paracétamol 500mg",
		Aliases:    []string{"Doliprane", "Efferalgan"},
		Price:      750,
		Stock:      10,
	}

	tests := []struct {
		query string
		want  bool
	}{
		{"paracétamol", true},
		{"PARACETAMOL", true},
		{"  paracetamol   500mg ", true},
		{"doli", true},
		{"efferalgan", true},
		{"ibuprofene", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, m.Matches(tt.query))
		})
	}

	assert.Equal(t, "paracetamol 500mg doliprane efferalgan", m.SearchKey())
}

func TestMedicine_Validate(t *testing.T) {
	err := catalog.Medicine{Price: -1, Stock: -2}.Validate()

	require.ErrorIs(t, err, kernel.ErrUUIDIsNotConstructed)
	require.ErrorIs(t, err, errs.ErrValueIsRequired)
	require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	assert.Contains(t, err.Error(), "medicine price")
	assert.Contains(t, err.Error(), "medicine stock")
}

func TestPharmacy_Validate(t *testing.T) {
	valid := catalog.Pharmacy{
		ID:       kernel.NewUUID(),
		Name:     "Pharmacie du Plateau",
		Phone:    "2250700000001",
		Location: kernel.MustNewGeoPoint(5.32, -4.016),
	}
	require.NoError(t, valid.Validate())

	missing := valid
	missing.Phone = ""
	missing.Location = kernel.GeoPoint{}
	err := missing.Validate()
	require.ErrorIs(t, err, errs.ErrValueIsRequired)
	require.ErrorIs(t, err, kernel.ErrGeoPointIsNotConstructed)
}

func TestDoctor_Validate(t *testing.T) {
	require.NoError(t, catalog.Doctor{ID: kernel.NewUUID(), Name: "Dr Kouassi"}.Validate())
	require.ErrorIs(t, catalog.Doctor{ID: kernel.NewUUID()}.Validate(), errs.ErrValueIsRequired)
}
