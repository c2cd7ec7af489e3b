package drone_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/skycourier-go/internal/domain/drone"
)

func TestNewAutonomy_Validation(t *testing.T) {
	// Act
	a, err := drone.NewAutonomy(5000, 10000)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 5000.0, a.Current)
	assert.Equal(t, 10000.0, a.Max)

	// Invalid: non-positive max
	_, err = drone.NewAutonomy(0, 0)
	assert.Error(t, err)

	// Invalid: current above max
	_, err = drone.NewAutonomy(11000, 10000)
	assert.Error(t, err)
}

func TestAutonomy_ConsumeCanGoNegative(t *testing.T) {
	// Arrange
	a, err := drone.NewAutonomy(100, 10000)
	require.NoError(t, err)

	// Act
	a = a.Consume(150)

	// Assert
	assert.Equal(t, -50.0, a.Current)
	assert.True(t, a.IsExhausted())
}

func TestAutonomy_ZeroIsNotExhausted(t *testing.T) {
	// Arrange
	a, err := drone.NewAutonomy(100, 10000)
	require.NoError(t, err)

	// Act
	a = a.Consume(100)

	// Assert
	assert.Equal(t, 0.0, a.Current)
	assert.False(t, a.IsExhausted())
}

func TestAutonomy_Recharge(t *testing.T) {
	// Arrange
	a, err := drone.NewAutonomy(10000, 10000)
	require.NoError(t, err)
	a = a.Consume(7500)

	// Act
	a = a.Recharge()

	// Assert
	assert.Equal(t, 10000.0, a.Current)
	assert.Equal(t, 100.0, a.Percentage())
}

func TestAutonomy_CanTravel(t *testing.T) {
	// Arrange
	a, err := drone.NewAutonomy(1000, 10000)
	require.NoError(t, err)

	// Assert
	assert.True(t, a.CanTravel(1000))
	assert.False(t, a.CanTravel(1000.1))
}
