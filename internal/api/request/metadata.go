// Package request defines the JSON request bodies accepted by the API.
package request

// UpsertMetadata is the body for creating or replacing a symbol override.
// The symbol itself comes from the URL path.
type UpsertMetadata struct {
	BuyZone         *float64 `json:"buyZone"`
	SellZone        *float64 `json:"sellZone"`
	CountryOverride string   `json:"countryOverride"`
	Note            string   `json:"note"`
}
