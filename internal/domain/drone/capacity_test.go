package drone_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/skycourier-go/internal/domain/drone"
)

func TestNewCapacity_Validation(t *testing.T) {
	// Act
	c, err := drone.NewCapacity(0, 5)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 0.0, c.Current)
	assert.Equal(t, 5.0, c.Max)
	assert.True(t, c.IsEmpty())

	// Invalid: non-positive max
	_, err = drone.NewCapacity(0, 0)
	assert.Error(t, err)

	// Invalid: current above max
	_, err = drone.NewCapacity(6, 5)
	assert.Error(t, err)
}

func TestCapacity_LoadAndUnload(t *testing.T) {
	// Arrange
	c, err := drone.NewCapacity(0, 5)
	require.NoError(t, err)

	// Act - Load
	c, err = c.Load(2)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 2.0, c.Current)
	assert.Equal(t, 3.0, c.Free())
	assert.False(t, c.IsEmpty())

	// Act - Unload
	c, err = c.Unload(2)

	// Assert
	require.NoError(t, err)
	assert.True(t, c.IsEmpty())
	assert.Equal(t, 5.0, c.Free())
}

func TestCapacity_LoadBeyondMax(t *testing.T) {
	// Arrange
	c, err := drone.NewCapacity(4, 5)
	require.NoError(t, err)

	// Act
	_, err = c.Load(2)

	// Assert
	assert.Error(t, err)
	assert.Equal(t, 4.0, c.Current)
}

func TestCapacity_UnloadBelowZero(t *testing.T) {
	// Arrange
	c, err := drone.NewCapacity(1, 5)
	require.NoError(t, err)

	// Act
	_, err = c.Unload(2)

	// Assert
	assert.Error(t, err)
}
