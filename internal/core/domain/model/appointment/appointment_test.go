package appointment_test

import (
	"testing"
	"time"

	"pharmadelivery/internal/core/domain/model/appointment"
	"pharmadelivery/internal/core/domain/model/kernel"
	"pharmadelivery/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAppointment(t *testing.T) {
	now := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	doctorID := kernel.NewUUID()

	a, err := appointment.NewAppointment(kernel.NewUUID(), "2250701020304", "Aya", doctorID, now)

	require.NoError(t, err)
	require.NoError(t, a.Validate())
	assert.Equal(t, appointment.StatusRequested, a.Status())
	assert.True(t, a.DoctorID().IsEqual(doctorID))
	assert.Equal(t, "Aya", a.CustomerName())
	assert.Equal(t, now, a.CreatedAt())
}

func TestNewAppointment_Invalid(t *testing.T) {
	a, err := appointment.NewAppointment(kernel.UUID{}, "", "", kernel.UUID{}, time.Now())

	require.Error(t, err)
	assert.Nil(t, a)
	require.ErrorIs(t, err, errs.ErrValueIsRequired)
	require.ErrorIs(t, err, kernel.ErrUUIDIsNotConstructed)

	var zero *appointment.Appointment
	require.ErrorIs(t, zero.Validate(), appointment.ErrAppointmentIsNotConstructed)
}
