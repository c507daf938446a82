// internal/sites/registry.go
package sites

import (
	"net/url"
	"strings"

	"quote-orchestrator/internal/models"
)

// Site is the static, compiled-in description of a known vendor endpoint.
// Runtime metadata (reliability, latency, counters) lives in the catalog
// store; this registry is the whitelist boundary the rest of the system
// filters against.
type Site struct {
	ID                string
	Domain            string
	SearchURLTemplate string // {q} is replaced with the encoded query
	JSHeavy           bool
}

var registry = map[string]Site{
	"amazon":            {ID: "amazon", Domain: "amazon.com", SearchURLTemplate: "https://www.amazon.com/s?k={q}"},
	"amazon_business":   {ID: "amazon_business", Domain: "amazon.com", SearchURLTemplate: "https://www.amazon.com/s?k={q}"},
	"bestbuy":           {ID: "bestbuy", Domain: "bestbuy.com", SearchURLTemplate: "https://www.bestbuy.com/site/searchpage.jsp?st={q}"},
	"newegg":            {ID: "newegg", Domain: "newegg.com", SearchURLTemplate: "https://www.newegg.com/p/pl?d={q}"},
	"bhphotovideo":      {ID: "bhphotovideo", Domain: "bhphotovideo.com", SearchURLTemplate: "https://www.bhphotovideo.com/c/search?q={q}"},
	"adorama":           {ID: "adorama", Domain: "adorama.com", SearchURLTemplate: "https://www.adorama.com/l/?searchinfo={q}"},
	"microcenter":       {ID: "microcenter", Domain: "microcenter.com", SearchURLTemplate: "https://www.microcenter.com/search/search_results.aspx?Ntt={q}"},
	"ebay":              {ID: "ebay", Domain: "ebay.com", SearchURLTemplate: "https://www.ebay.com/sch/i.html?_nkw={q}"},
	"walmart":           {ID: "walmart", Domain: "walmart.com", SearchURLTemplate: "https://www.walmart.com/search?q={q}", JSHeavy: true},
	"walmart_business":  {ID: "walmart_business", Domain: "walmart.com", SearchURLTemplate: "https://www.walmart.com/search?q={q}", JSHeavy: true},
	"target":            {ID: "target", Domain: "target.com", SearchURLTemplate: "https://www.target.com/s?searchTerm={q}", JSHeavy: true},
	"staples":           {ID: "staples", Domain: "staples.com", SearchURLTemplate: "https://www.staples.com/{q}/directory_{q}"},
	"officedepot":       {ID: "officedepot", Domain: "officedepot.com", SearchURLTemplate: "https://www.officedepot.com/a/search/?q={q}"},
	"quill":             {ID: "quill", Domain: "quill.com", SearchURLTemplate: "https://www.quill.com/search?keywords={q}"},
	"uline":             {ID: "uline", Domain: "uline.com", SearchURLTemplate: "https://www.uline.com/BL_35/Search?keywords={q}"},
	"webstaurantstore":  {ID: "webstaurantstore", Domain: "webstaurantstore.com", SearchURLTemplate: "https://www.webstaurantstore.com/search/{q}.html"},
	"katom":             {ID: "katom", Domain: "katom.com", SearchURLTemplate: "https://www.katom.com/search.html?query={q}"},
	"centralrestaurant": {ID: "centralrestaurant", Domain: "centralrestaurant.com", SearchURLTemplate: "https://www.centralrestaurant.com/search/{q}"},
	"therestaurantstore": {ID: "therestaurantstore", Domain: "therestaurantstore.com", SearchURLTemplate: "https://www.therestaurantstore.com/search/{q}"},
	"restaurantdepot":   {ID: "restaurantdepot", Domain: "restaurantdepot.com", SearchURLTemplate: "https://www.restaurantdepot.com/catalogsearch/result/?q={q}"},
	"ace_mart":          {ID: "ace_mart", Domain: "acemart.com", SearchURLTemplate: "https://www.acemart.com/search?q={q}"},
	"grainger":          {ID: "grainger", Domain: "grainger.com", SearchURLTemplate: "https://www.grainger.com/search?searchQuery={q}"},
	"zoro":              {ID: "zoro", Domain: "zoro.com", SearchURLTemplate: "https://www.zoro.com/search?q={q}"},
	"mcmaster":          {ID: "mcmaster", Domain: "mcmaster.com", SearchURLTemplate: "https://www.mcmaster.com/products/{q}/"},
	"homedepot":         {ID: "homedepot", Domain: "homedepot.com", SearchURLTemplate: "https://www.homedepot.com/s/{q}", JSHeavy: true},
	"lowes":             {ID: "lowes", Domain: "lowes.com", SearchURLTemplate: "https://www.lowes.com/search?searchTerm={q}", JSHeavy: true},
	"platt":             {ID: "platt", Domain: "platt.com", SearchURLTemplate: "https://www.platt.com/search.aspx?q={q}"},
	"cityelectricsupply": {ID: "cityelectricsupply", Domain: "cityelectricsupply.com", SearchURLTemplate: "https://www.cityelectricsupply.com/search?text={q}"},
}

// Lookup returns the registry entry for a known site id.
func Lookup(siteID string) (Site, bool) {
	s, ok := registry[siteID]
	return s, ok
}

// IsKnown reports whether the site id is in the static whitelist.
func IsKnown(siteID string) bool {
	_, ok := registry[siteID]
	return ok
}

// IsJSHeavy reports whether the site is a challenge-prone storefront that
// requires browser execution more often than not.
func IsJSHeavy(siteID string) bool {
	return registry[siteID].JSHeavy
}

// SearchURL renders the site's search URL for a query, honoring a caller
// override template when present.
func SearchURL(siteID, query string, overrides map[string]string) string {
	q := url.QueryEscape(query)
	if tpl, ok := overrides[siteID]; ok && tpl != "" {
		return strings.ReplaceAll(tpl, "{q}", q)
	}
	if s, ok := registry[siteID]; ok {
		return strings.ReplaceAll(s.SearchURLTemplate, "{q}", q)
	}
	return "https://www.google.com/search?q=" + q + "+buy"
}

// FallbackPlan is the generic candidate list used when no category plan
// resolves any sites.
func FallbackPlan() []string {
	return []string{"amazon", "walmart", "ebay", "target"}
}

// Sanitize lower-cases, folds punctuation and whitespace runs into single
// underscores, and drops anything not in the whitelist. Unknown tokens
// disappear silently; duplicates keep their first position.
func Sanitize(candidates []string) []string {
	seen := make(map[string]struct{}, len(candidates))
	out := make([]string, 0, len(candidates))
	for _, raw := range candidates {
		id := foldIdentifier(raw)
		if id == "" || !IsKnown(id) {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func foldIdentifier(raw string) string {
	var b strings.Builder
	lastUnderscore := true // trims leading separators
	for _, r := range strings.ToLower(strings.TrimSpace(raw)) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	return strings.TrimRight(b.String(), "_")
}

// categoryTerms is the fixed term table for the deterministic keyword
// classifier fallback.
var categoryTerms = map[models.Category][]string{
	models.CategoryOffice: {
		"paper", "pen", "pens", "toner", "ink", "stapler", "staples", "folder",
		"binder", "towels", "envelope", "envelopes", "notebook", "desk",
		"chair", "printer", "whiteboard", "label", "labels", "tape",
	},
	models.CategoryElectronics: {
		"laptop", "monitor", "ssd", "gpu", "cpu", "keyboard", "mouse",
		"camera", "cable", "hdmi", "router", "switch", "tv", "projector",
		"headset", "webcam", "charger", "battery",
	},
	models.CategoryRestaurant: {
		"fryer", "griddle", "pan", "pans", "cutlery", "oven", "refrigerator",
		"freezer", "dishwasher", "blender", "tray", "trays", "utensil",
		"utensils", "napkin", "napkins", "cookware",
	},
	models.CategoryIndustrial: {
		"bearing", "bearings", "valve", "valves", "pump", "motor", "gasket",
		"hose", "fastener", "fasteners", "gloves", "pallet", "bin", "bins",
		"caster", "casters", "lubricant",
	},
	models.CategoryConstruction: {
		"lumber", "drywall", "rebar", "concrete", "wire", "conduit",
		"breaker", "drill", "saw", "ladder", "paint", "insulation", "screws",
		"nails", "plywood",
	},
}

// CategoryTerms returns the keyword table for a category.
func CategoryTerms(c models.Category) []string {
	return categoryTerms[c]
}

// Categories returns the closed category set (without unknown) in a stable
// order, so tie-breaking in the fallback classifier is deterministic.
func Categories() []models.Category {
	return []models.Category{
		models.CategoryOffice,
		models.CategoryElectronics,
		models.CategoryRestaurant,
		models.CategoryIndustrial,
		models.CategoryConstruction,
	}
}

// ParseCategory maps free-form advisory output onto the closed set.
func ParseCategory(raw string) models.Category {
	switch models.Category(strings.ToLower(strings.TrimSpace(raw))) {
	case models.CategoryOffice:
		return models.CategoryOffice
	case models.CategoryElectronics:
		return models.CategoryElectronics
	case models.CategoryRestaurant:
		return models.CategoryRestaurant
	case models.CategoryIndustrial:
		return models.CategoryIndustrial
	case models.CategoryConstruction:
		return models.CategoryConstruction
	default:
		return models.CategoryUnknown
	}
}
