package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darzi-app/darzi/app/models"
)

func TestNewCategoryDefaultsColor(t *testing.T) {
	c, err := models.NewCategory(models.CategoryInput{Name: " Waistcoat "}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Waistcoat", c.Name)
	assert.Equal(t, models.Palette[0].Value, c.ColorTag)
}

func TestNewCategoryRejects(t *testing.T) {
	taken := func(name string) (bool, error) { return name == "Shirt", nil }

	_, err := models.NewCategory(models.CategoryInput{Name: "Shirt"}, taken)
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "name")

	_, err = models.NewCategory(models.CategoryInput{Name: "Vest", ColorTag: "blue"}, taken)
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "color")
}

func TestCategoryApplyKeepsIdentity(t *testing.T) {
	c, err := models.NewCategory(models.CategoryInput{Name: "Shirt", ColorTag: "#3B82F6"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "#3b82f6", c.ColorTag)

	taken := func(name string) (bool, error) { return name == "Shirt" || name == "Pant", nil }

	same, err := c.Apply(models.CategoryInput{Name: "shirt", Description: "Formal and casual"}, taken)
	require.NoError(t, err)
	assert.Equal(t, c.ID, same.ID)
	assert.Equal(t, "Formal and casual", same.Description)

	_, err = c.Apply(models.CategoryInput{Name: "Pant"}, taken)
	assert.Error(t, err)
}
