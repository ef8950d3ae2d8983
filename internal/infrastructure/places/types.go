package places

// Wire types for the Places API (v1) responses. Only the fields used for
// enrichment are decoded.

type localizedText struct {
	Text         string `json:"text"`
	LanguageCode string `json:"languageCode,omitempty"`
}

type pointResponse struct {
	Day    int `json:"day"`
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

type periodResponse struct {
	Open  *pointResponse `json:"open,omitempty"`
	Close *pointResponse `json:"close,omitempty"`
}

type openingHoursResponse struct {
	OpenNow bool             `json:"openNow"`
	Periods []periodResponse `json:"periods"`
}

type placeResponse struct {
	ID                  string                `json:"id"`
	DisplayName         *localizedText        `json:"displayName,omitempty"`
	FormattedAddress    string                `json:"formattedAddress"`
	NationalPhoneNumber string                `json:"nationalPhoneNumber,omitempty"`
	WebsiteURI          string                `json:"websiteUri,omitempty"`
	BusinessStatus      string                `json:"businessStatus,omitempty"`
	Types               []string              `json:"types,omitempty"`
	RegularOpeningHours *openingHoursResponse `json:"regularOpeningHours,omitempty"`
}

type searchTextRequest struct {
	TextQuery string `json:"textQuery"`
}

type searchTextResponse struct {
	Places []placeResponse `json:"places"`
}

// detailFields is the field mask shared by details and search requests
var detailFields = []string{
	"id",
	"displayName",
	"formattedAddress",
	"nationalPhoneNumber",
	"websiteUri",
	"businessStatus",
	"types",
	"regularOpeningHours",
}
