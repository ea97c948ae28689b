package usage

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/doya-app/banner-api/internal/constants"
)

var sizeRe = regexp.MustCompile(`^\d+x\d+$`)

// ValidateSize resolves the effective banner size for a plan. Plans without
// custom sizing are pinned to the default regardless of what was requested;
// custom sizes must be WxH with both dimensions in [100, 4096].
func ValidateSize(requested string, limits constants.PlanLimits) (string, error) {
	if !limits.CustomSizeAllowed || requested == "" {
		return constants.DefaultBannerSize, nil
	}
	if !sizeRe.MatchString(requested) {
		return "", fmt.Errorf("size %q is not WxH", requested)
	}
	parts := strings.SplitN(requested, "x", 2)
	for _, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			return "", fmt.Errorf("size %q is not numeric", requested)
		}
		if v < constants.MinBannerDimension || v > constants.MaxBannerDimension {
			return "", fmt.Errorf("size %q out of range %d-%d",
				requested, constants.MinBannerDimension, constants.MaxBannerDimension)
		}
	}
	return requested, nil
}

// ClampCount bounds the requested image count to [1, plan batch max].
func ClampCount(requested int, limits constants.PlanLimits) int {
	if requested < 1 {
		return 1
	}
	if requested > limits.MaxBatchCount {
		return limits.MaxBatchCount
	}
	return requested
}
