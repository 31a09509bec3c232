package clcdkutil

import (
	"fmt"
	"sort"
	"strings"
)

// knownRegions lists every AWS commercial region the platform can be
// configured to deploy into. Add new regions here as AWS launches them.
var knownRegions = map[string]bool{
	"af-south-1":     true,
	"ap-east-1":      true,
	"ap-northeast-1": true,
	"ap-northeast-2": true,
	"ap-northeast-3": true,
	"ap-south-1":     true,
	"ap-south-2":     true,
	"ap-southeast-1": true,
	"ap-southeast-2": true,
	"ap-southeast-3": true,
	"ap-southeast-4": true,
	"ap-southeast-5": true,
	"ca-central-1":   true,
	"ca-west-1":      true,
	"eu-central-1":   true,
	"eu-central-2":   true,
	"eu-north-1":     true,
	"eu-south-1":     true,
	"eu-south-2":     true,
	"eu-west-1":      true,
	"eu-west-2":      true,
	"eu-west-3":      true,
	"il-central-1":   true,
	"me-central-1":   true,
	"me-south-1":     true,
	"sa-east-1":      true,
	"us-east-1":      true,
	"us-east-2":      true,
	"us-west-1":      true,
	"us-west-2":      true,
}

// IsKnownRegion reports whether region is a known AWS region.
func IsKnownRegion(region string) bool {
	return knownRegions[region]
}

// AllKnownRegions returns every known region, sorted.
func AllKnownRegions() []string {
	regions := make([]string, 0, len(knownRegions))
	for region := range knownRegions {
		regions = append(regions, region)
	}
	sort.Strings(regions)
	return regions
}

// MustRegion returns region, panicking when it is not a known AWS region.
// Use it for static tables where an unknown region is a programming error.
func MustRegion(region string) string {
	if !IsKnownRegion(region) {
		panic(fmt.Sprintf("unknown AWS region: %s, known regions: %s",
			region, strings.Join(AllKnownRegions(), ", ")))
	}
	return region
}
