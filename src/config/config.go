// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package config loads validator settings from a JSON or YAML file and the
// environment, and turns them into x509chain.Options.
package config

import (
	"crypto"
	"encoding/asn1"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/prometheus/client_golang/prometheus"
	"gopkg.in/yaml.v3"

	"github.com/H0llyW00dzZ/x509-path-validator/src/logger"
	"github.com/H0llyW00dzZ/x509-path-validator/src/metrics"
	x509certs "github.com/H0llyW00dzZ/x509-path-validator/src/x509/certs"
	x509chain "github.com/H0llyW00dzZ/x509-path-validator/src/x509/chain"
	x509ext "github.com/H0llyW00dzZ/x509-path-validator/src/x509/ext"
	x509provider "github.com/H0llyW00dzZ/x509-path-validator/src/x509/provider"
)

const (
	// EnvPrefix prefixes every environment variable read by Load.
	EnvPrefix = "X509PV_"
	// EnvConfigFile names the config file when Load is given no path.
	EnvConfigFile = EnvPrefix + "CONFIG_FILE"
)

// Log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
	LogFormatNone = "none"
)

// configFormat represents supported configuration file formats.
type configFormat int

const (
	// configFormatJSON represents JSON configuration format (.json)
	configFormatJSON configFormat = iota
	// configFormatYAML represents YAML configuration format (.yaml, .yml)
	configFormatYAML
)

// Validator holds validator settings. Object identifiers are written in
// dotted form; digests by name ("SHA-256").
type Validator struct {
	// MaxCandidates: Issuer candidates tried per validation, 0 for unbounded
	MaxCandidates int `json:"maxCandidates" yaml:"maxCandidates" env:"MAX_CANDIDATES"`
	// MaxDepth: Certificates allowed below the trust anchor
	MaxDepth int `json:"maxDepth" yaml:"maxDepth" env:"MAX_DEPTH"`

	// MinRSABits: Smallest accepted RSA modulus
	MinRSABits int `json:"minRSABits" yaml:"minRSABits" env:"MIN_RSA_BITS"`
	// AllowedHashes: Only digests accepted in signatures; empty accepts every supported digest
	AllowedHashes []string `json:"allowedHashes,omitempty" yaml:"allowedHashes,omitempty" env:"ALLOWED_HASHES"`
	// AllowSHA1: Accept SHA-1 based signatures
	AllowSHA1 bool `json:"allowSHA1" yaml:"allowSHA1" env:"ALLOW_SHA1"`

	// RequireLeafDigitalSignature: Leaf key usage must include digitalSignature
	RequireLeafDigitalSignature bool `json:"requireLeafDigitalSignature" yaml:"requireLeafDigitalSignature" env:"REQUIRE_LEAF_DIGITAL_SIGNATURE"`
	// RequiredLeafEKUs: Purposes the leaf must permit
	RequiredLeafEKUs []string `json:"requiredLeafEKUs,omitempty" yaml:"requiredLeafEKUs,omitempty" env:"REQUIRED_LEAF_EKUS"`
	// RequiredPolicies: Policies every certificate below the anchor must assert
	RequiredPolicies []string `json:"requiredPolicies,omitempty" yaml:"requiredPolicies,omitempty" env:"REQUIRED_POLICIES"`

	// InitialPolicies: Acceptable policies for the whole path
	InitialPolicies []string `json:"initialPolicies,omitempty" yaml:"initialPolicies,omitempty" env:"INITIAL_POLICIES"`
	// RequireExplicitPolicy: Path must end with a non-empty policy set
	RequireExplicitPolicy bool `json:"requireExplicitPolicy" yaml:"requireExplicitPolicy" env:"REQUIRE_EXPLICIT_POLICY"`
	// InhibitAnyPolicy: anyPolicy does not match below the anchor
	InhibitAnyPolicy bool `json:"inhibitAnyPolicy" yaml:"inhibitAnyPolicy" env:"INHIBIT_ANY_POLICY"`

	// LogFormat: "text", "json" or "none"
	LogFormat string `json:"logFormat" yaml:"logFormat" env:"LOG_FORMAT"`
	// MetricsEnabled: Record validation metrics
	MetricsEnabled bool `json:"metricsEnabled" yaml:"metricsEnabled" env:"METRICS_ENABLED"`
}

// Default returns the settings used when nothing is configured.
func Default() *Validator {
	return &Validator{
		MaxDepth:   x509chain.DefaultMaxDepth,
		MinRSABits: x509provider.DefaultMinRSABits,
		LogFormat:  LogFormatNone,
	}
}

// detectConfigFormat determines the configuration file format based on file extension.
func detectConfigFormat(configPath string) configFormat {
	switch strings.ToLower(filepath.Ext(configPath)) {
	case ".yaml", ".yml":
		return configFormatYAML
	default:
		return configFormatJSON
	}
}

func unmarshalConfig(data []byte, cfg *Validator, format configFormat) error {
	switch format {
	case configFormatYAML:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse YAML config file: %w", err)
		}
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse JSON config file: %w", err)
		}
	}
	return nil
}

// Load reads validator settings.
//
// Parameters:
//   - configPath: Path to a .json, .yaml or .yml file; may be empty
//
// Returns:
//   - *Validator: Loaded settings
//   - error: Any read or parse error
//
// Configuration Priority:
//  1. Default values are set
//  2. X509PV_CONFIG_FILE is checked if configPath is empty
//  3. Config file values override defaults
//  4. X509PV_* environment variables override config file values
//
// Out of range numbers and unknown log formats revert to their defaults.
func Load(configPath string) (*Validator, error) {
	cfg := Default()

	if configPath == "" {
		configPath = os.Getenv(EnvConfigFile)
	}
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := unmarshalConfig(data, cfg, detectConfigFormat(configPath)); err != nil {
			return nil, err
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	cfg.sanitize()
	return cfg, nil
}

func (c *Validator) sanitize() {
	def := Default()
	if c.MaxCandidates < 0 {
		c.MaxCandidates = def.MaxCandidates
	}
	if c.MaxDepth <= 0 {
		c.MaxDepth = def.MaxDepth
	}
	if c.MinRSABits <= 0 {
		c.MinRSABits = def.MinRSABits
	}
	switch c.LogFormat {
	case LogFormatText, LogFormatJSON, LogFormatNone:
	default:
		c.LogFormat = def.LogFormat
	}
}

// Options converts the settings. Logs go to w; metrics are registered on reg
// when enabled and reg is not nil.
func (c *Validator) Options(w io.Writer, reg prometheus.Registerer) (x509chain.Options, error) {
	hashes := make([]crypto.Hash, 0, len(c.AllowedHashes))
	for _, name := range c.AllowedHashes {
		h, err := x509provider.ParseHash(name)
		if err != nil {
			return x509chain.Options{}, fmt.Errorf("allowedHashes: %w", err)
		}
		hashes = append(hashes, h)
	}
	ekus, err := parseOIDs(c.RequiredLeafEKUs)
	if err != nil {
		return x509chain.Options{}, fmt.Errorf("requiredLeafEKUs: %w", err)
	}
	required, err := parseOIDs(c.RequiredPolicies)
	if err != nil {
		return x509chain.Options{}, fmt.Errorf("requiredPolicies: %w", err)
	}
	initial, err := parseOIDs(c.InitialPolicies)
	if err != nil {
		return x509chain.Options{}, fmt.Errorf("initialPolicies: %w", err)
	}

	opts := x509chain.Options{
		Provider: x509provider.New(x509provider.Policy{
			AllowSHA1:     c.AllowSHA1,
			MinRSABits:    c.MinRSABits,
			AllowedHashes: hashes,
		}),
		Checkers:              []x509ext.Checker{x509ext.KeyIdentifierChecker{}},
		MaxCandidates:         c.MaxCandidates,
		MaxDepth:              c.MaxDepth,
		InitialPolicies:       initial,
		RequireExplicitPolicy: c.RequireExplicitPolicy,
		InhibitAnyPolicy:      c.InhibitAnyPolicy,
	}
	if c.RequireLeafDigitalSignature {
		opts.Checkers = append(opts.Checkers, x509ext.KeyUsageChecker{Leaf: x509certs.KeyUsageDigitalSignature})
	}
	if len(ekus) > 0 {
		opts.Checkers = append(opts.Checkers, x509ext.ExtKeyUsageChecker{Required: ekus})
	}
	if len(required) > 0 {
		opts.Checkers = append(opts.Checkers, x509ext.PolicyChecker{Required: required})
	}

	if w == nil {
		w = io.Discard
	}
	switch c.LogFormat {
	case LogFormatJSON:
		opts.Logger = logger.NewJSONLogger(w, false)
	case LogFormatText:
		l := logger.NewTextLogger()
		l.SetOutput(w)
		opts.Logger = l
	}
	if c.MetricsEnabled && reg != nil {
		opts.Metrics = metrics.New(reg)
	}
	return opts, nil
}

// parseOIDs parses dotted object identifiers such as "1.3.6.1.5.5.7.3.1".
func parseOIDs(dotted []string) ([]asn1.ObjectIdentifier, error) {
	var oids []asn1.ObjectIdentifier
	for _, s := range dotted {
		parts := strings.Split(strings.TrimSpace(s), ".")
		if len(parts) < 2 {
			return nil, fmt.Errorf("invalid object identifier %q", s)
		}
		oid := make(asn1.ObjectIdentifier, len(parts))
		for i, p := range parts {
			n, err := strconv.Atoi(p)
			if err != nil || n < 0 {
				return nil, fmt.Errorf("invalid object identifier %q", s)
			}
			oid[i] = n
		}
		oids = append(oids, oid)
	}
	return oids, nil
}
