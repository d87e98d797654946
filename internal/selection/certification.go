package selection

import (
	"strconv"
	"strings"

	"movienight-workers/internal/tmdb"
)

const (
	RatingFree        = "Livre"
	RatingUnavailable = "Classificação Indicativa não disponível"
	warningAgeAbove   = 16
)

// MovieCertification picks the region's first non-empty release certification,
// falling back to the first entry present when the region is missing.
func MovieCertification(resp *tmdb.ReleaseDatesResponse, region string) string {
	if resp == nil || len(resp.Results) == 0 {
		return ""
	}
	entry := &resp.Results[0]
	for i := range resp.Results {
		if strings.EqualFold(resp.Results[i].ISO3166_1, region) {
			entry = &resp.Results[i]
			break
		}
	}
	for _, rd := range entry.ReleaseDates {
		if c := strings.TrimSpace(rd.Certification); c != "" {
			return c
		}
	}
	return ""
}

// SeriesCertification picks the region's content rating, falling back to the
// first entry present when the region is missing.
func SeriesCertification(resp *tmdb.ContentRatingsResponse, region string) string {
	if resp == nil || len(resp.Results) == 0 {
		return ""
	}
	for _, r := range resp.Results {
		if strings.EqualFold(r.ISO3166_1, region) {
			return strings.TrimSpace(r.Rating)
		}
	}
	return strings.TrimSpace(resp.Results[0].Rating)
}

// AgeWarning turns a certification into the user facing warning. Numeric ages
// above 16 produce the category text, lower ages and the free code produce
// nothing, and any other code is returned verbatim.
func AgeWarning(cert string, d *Descriptor) string {
	cert = strings.TrimSpace(cert)
	if cert == "" || isFreeRating(cert) {
		return ""
	}
	age, err := strconv.Atoi(cert)
	if err != nil {
		return cert
	}
	if age > warningAgeAbove {
		return d.AgeWarningText(age)
	}
	return ""
}

// NormalizeRating maps a certification to its display label. Only the exact
// ClassInd ages are recognized; anything else is unavailable.
func NormalizeRating(cert string) string {
	c := strings.ToLower(strings.TrimSpace(cert))
	if isFreeRating(c) {
		return RatingFree
	}
	switch c {
	case "10", "12", "14", "16", "18":
		return c + " anos"
	}
	return RatingUnavailable
}

func isFreeRating(cert string) bool {
	switch strings.ToLower(cert) {
	case "l", "livre", "p":
		return true
	}
	return false
}
