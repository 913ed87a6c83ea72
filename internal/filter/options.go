package filter

import (
	"fmt"
	"sort"
	"strings"

	"scoutdeck/internal/dataset"
)

// NonAffiliated is the IPEDS code used for schools with no religious
// affiliation; selecting it also admits rows where the field is absent.
const NonAffiliated = -2.0

// RegionLabels maps IPEDS OBEREG codes to display names.
var RegionLabels = map[float64]string{
	0: "U.S. Service Schools",
	1: "New England (CT, ME, MA, NH, RI, VT)",
	2: "Mid East (DE, DC, MD, NJ, NY, PA)",
	3: "Great Lakes (IL, IN, MI, OH, WI)",
	4: "Plains (IA, KS, MN, MO, NE, ND, SD)",
	5: "Southeast (AL, AR, FL, GA, KY, LA, MS, NC, SC, TN, VA, WV)",
	6: "Southwest (AZ, NM, OK, TX)",
	7: "Rocky Mountains (CO, ID, MT, UT, WY)",
	8: "Far West (AK, CA, HI, NV, OR, WA)",
	9: "Outlying Areas (AS, FM, GU, MH, MP, PW, PR, VI)",
}

// LocaleLabels maps IPEDS locale codes to display names.
var LocaleLabels = map[float64]string{
	11: "City: Large",
	12: "City: Midsize",
	13: "City: Small",
	21: "Suburb: Large",
	22: "Suburb: Midsize",
	23: "Suburb: Small",
	31: "Town: Fringe",
	32: "Town: Distant",
	33: "Town: Remote",
	41: "Rural: Fringe",
	42: "Rural: Distant",
	43: "Rural: Remote",
}

// ControlLabels maps IPEDS control codes to display names.
var ControlLabels = map[int]string{
	1: "Public",
	2: "Private nonprofit",
	3: "Private for-profit",
}

// ReligiousLabels maps IPEDS relaffil codes to denomination names.
var ReligiousLabels = map[float64]string{
	NonAffiliated: "Non-affiliated",
	22:            "American Evangelical Lutheran Church",
	24:            "African Methodist Episcopal Zion Church",
	27:            "Assemblies of God Church",
	28:            "Brethren Church",
	30:            "Roman Catholic",
	33:            "Wisconsin Evangelical Lutheran Synod",
	34:            "Christ and Missionary Alliance Church",
	35:            "Christian Reformed Church",
	36:            "Evangelical Congregational Church",
	37:            "Evangelical Covenant Church of America",
	38:            "Evangelical Free Church of America",
	39:            "Evangelical Lutheran Church",
	40:            "International United Pentecostal Church",
	41:            "Free Will Baptist Church",
	42:            "Interdenominational",
	43:            "Mennonite Brethren Church",
	44:            "Moravian Church",
	45:            "North American Baptist",
	47:            "Pentecostal Holiness Church",
	48:            "Christian Churches and Churches of Christ",
	49:            "Reformed Church in America",
	50:            "Episcopal Church, Reformed",
	51:            "African Methodist Episcopal",
	52:            "American Baptist",
	53:            "American Lutheran",
	54:            "Baptist",
	55:            "Christian Methodist Episcopal",
	57:            "Church of God",
	58:            "Church of Brethren",
	59:            "Church of the Nazarene",
	60:            "Cumberland Presbyterian",
	61:            "Christian Church (Disciples of Christ)",
	64:            "Free Methodist",
	65:            "Friends",
	66:            "Presbyterian Church (USA)",
	67:            "Lutheran Church in America",
	68:            "Lutheran Church - Missouri Synod",
	69:            "Mennonite Church",
	71:            "United Methodist",
	73:            "Protestant Episcopal",
	74:            "Churches of Christ",
	75:            "Southern Baptist",
	76:            "United Church of Christ",
	77:            "Protestant, not specified",
	78:            "Multiple Protestant Denomination",
	79:            "Other Protestant",
	80:            "Jewish",
	81:            "Reformed Presbyterian Church",
	84:            "United Brethren Church",
	87:            "Missionary Church Inc",
	88:            "Undenominational",
	89:            "Wesleyan",
	91:            "Greek Orthodox",
	92:            "Russian Orthodox",
	93:            "Unitarian Universalist",
	94:            "Latter Day Saints (Mormon Church)",
	95:            "Seventh Day Adventists",
	97:            "The Presbyterian Church in America",
	99:            "Other",
	100:           "Original Free Will Baptist",
	101:           "Ecumenical Christian",
	102:           "Evangelical Christian",
	103:           "Presbyterian",
	105:           "General Baptist",
	106:           "Muslim",
	107:           "Plymouth Brethren",
	108:           "Original Church of God",
}

// EnrollmentCategory is a named undergraduate-enrollment band.
type EnrollmentCategory struct {
	Key   string
	Label string
	Min   float64
	Max   float64
}

// EnrollmentCategories lists the selectable enrollment bands, smallest first.
var EnrollmentCategories = []EnrollmentCategory{
	{Key: "extra-small", Label: "Extra-Small (< 1k)", Min: 0, Max: 999},
	{Key: "small", Label: "Small (1k - 3k)", Min: 1000, Max: 2999},
	{Key: "small-mid", Label: "Small-Mid (3k - 7k)", Min: 3000, Max: 6999},
	{Key: "medium", Label: "Medium (7k - 15k)", Min: 7000, Max: 14999},
	{Key: "mid-large", Label: "Mid-Large (15k - 30k)", Min: 15000, Max: 29999},
	{Key: "extra-large", Label: "Extra Large (30k+)", Min: 30000, Max: 999999},
}

func enrollmentCategory(key string) (EnrollmentCategory, bool) {
	for _, c := range EnrollmentCategories {
		if c.Key == key {
			return c, true
		}
	}
	return EnrollmentCategory{}, false
}

// Option is a selectable value with its display label.
type Option struct {
	Label string `json:"label"`
	Value any    `json:"value"`
}

// SearchOptions filters options by case-insensitive substring match on the
// label. An empty term returns the input unchanged. Pure function; the
// reference lists themselves are never mutated.
func SearchOptions(opts []Option, term string) []Option {
	if term == "" {
		return opts
	}
	needle := strings.ToLower(term)
	var out []Option
	for _, o := range opts {
		if strings.Contains(strings.ToLower(o.Label), needle) {
			out = append(out, o)
		}
	}
	return out
}

// Options bundles every filter dictionary the UI needs, derived from the
// working table's distinct values plus the static label maps.
type Options struct {
	Divisions   []Option `json:"divisions"`
	Regions     []Option `json:"regions"`
	Locales     []Option `json:"locales"`
	Controls    []Option `json:"controls"`
	Conferences []Option `json:"conferences"`
	Religious   []Option `json:"religious"`
	Enrollment  []Option `json:"enrollment"`
	Months      []Option `json:"months"`
}

// BuildOptions derives the option dictionaries from the working table.
func BuildOptions(t *dataset.Table) Options {
	var opts Options
	for _, d := range []int{1, 2, 3} {
		opts.Divisions = append(opts.Divisions, Option{Label: fmt.Sprintf("Division %d", d), Value: d})
	}
	for _, r := range t.RegionCodes() {
		label := RegionLabels[r]
		if label == "" {
			label = fmt.Sprintf("Region %g", r)
		}
		opts.Regions = append(opts.Regions, Option{Label: label, Value: r})
	}
	for _, l := range t.LocaleCodes() {
		label := LocaleLabels[l]
		if label == "" {
			label = fmt.Sprintf("Locale %g", l)
		}
		opts.Locales = append(opts.Locales, Option{Label: label, Value: l})
	}
	controls := make([]int, 0, len(ControlLabels))
	for c := range ControlLabels {
		controls = append(controls, c)
	}
	sort.Ints(controls)
	for _, c := range controls {
		opts.Controls = append(opts.Controls, Option{Label: ControlLabels[c], Value: c})
	}
	for _, c := range t.Conferences() {
		opts.Conferences = append(opts.Conferences, Option{Label: c, Value: c})
	}
	opts.Religious = append(opts.Religious, Option{Label: ReligiousLabels[NonAffiliated], Value: NonAffiliated})
	for _, r := range t.ReligiousCodes() {
		if r == NonAffiliated {
			continue
		}
		label := ReligiousLabels[r]
		if label == "" {
			label = fmt.Sprintf("Code %d", int(r))
		}
		opts.Religious = append(opts.Religious, Option{Label: label, Value: r})
	}
	for _, c := range EnrollmentCategories {
		opts.Enrollment = append(opts.Enrollment, Option{Label: c.Label, Value: c.Key})
	}
	opts.Months = append(opts.Months, Option{Label: "Annual", Value: 0})
	for m := 1; m <= 12; m++ {
		opts.Months = append(opts.Months, Option{Label: monthName(m), Value: m})
	}
	return opts
}

func monthName(m int) string {
	names := []string{"January", "February", "March", "April", "May", "June",
		"July", "August", "September", "October", "November", "December"}
	if m < 1 || m > 12 {
		return ""
	}
	return names[m-1]
}
