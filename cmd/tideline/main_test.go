package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"tideline.pugetsound.org/internal/models"
)

func TestGoodnessMark(t *testing.T) {
	assert.Equal(t, "(good)", goodnessMark(models.Good))
	assert.Equal(t, "(risky)", goodnessMark(models.Risky))
	assert.Equal(t, "(too late)", goodnessMark(models.TooLate))
	assert.Empty(t, goodnessMark(models.GoodnessUnknown))
	assert.Empty(t, goodnessMark(models.Indifferent))
}
