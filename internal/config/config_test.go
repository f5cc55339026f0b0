package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spokesbot/internal/classify"
)

func TestDefaultClassifierSectionMirrorsRules(t *testing.T) {
	rules := classify.DefaultRules()
	cc := defaultConfig().Classifier

	assert.Equal(t, string(rules.Default), cc.DefaultLabel)
	assert.Equal(t, rules.Comparative, cc.Comparative)

	require.Len(t, cc.Labels, len(rules.Labels))
	for i, lr := range rules.Labels {
		assert.Equal(t, string(lr.Label), cc.Labels[i].Name)
		assert.Equal(t, lr.Keywords, cc.Labels[i].Keywords)
		assert.NotEmpty(t, cc.Labels[i].DocumentNames)
	}
}

func TestDefaultConfigValidates(t *testing.T) {
	assert.NoError(t, defaultConfig().validate())
}

func TestValidateRejectsBadChunking(t *testing.T) {
	cfg := defaultConfig()
	cfg.Corpus.ChunkOverlap = cfg.Corpus.ChunkSize
	assert.Error(t, cfg.validate())
}

func TestValidateRejectsUnknownDefaultLabel(t *testing.T) {
	cfg := defaultConfig()
	cfg.Classifier.DefaultLabel = "nonexistent"
	assert.Error(t, cfg.validate())
}
