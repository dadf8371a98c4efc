package types

import (
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// Prefixes for entity ids so that an id is self-describing in logs.
const (
	IDPrefixProduct       = "prod"
	IDPrefixProductView   = "view"
	IDPrefixCountry       = "ctry"
	IDPrefixCountryGroup  = "cgrp"
	IDPrefixSubscription  = "sub"
	IDPrefixCustomization = "cust"
	IDPrefixRequest       = "req"
)

// GenerateULID returns a lexicographically sortable unique id.
func GenerateULID() string {
	return strings.ToLower(ulid.MustNew(ulid.Timestamp(time.Now().UTC()), ulid.DefaultEntropy()).String())
}

// GenerateULIDWithPrefix returns an id like "prod_01jd3...".
func GenerateULIDWithPrefix(prefix string) string {
	if prefix == "" {
		return GenerateULID()
	}
	return prefix + "_" + GenerateULID()
}
