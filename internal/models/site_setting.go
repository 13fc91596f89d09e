package models

import (
	"encoding/json"
	"time"
)

// SiteSetting is one editable storefront value. Value holds arbitrary JSON;
// it is kept in Mongo as its encoded text so documents round-trip unchanged.
type SiteSetting struct {
	Key         string          `bson:"_id" json:"key"`
	Value       json.RawMessage `bson:"-" json:"value"`
	RawValue    string          `bson:"value" json:"-"`
	Description string          `bson:"description" json:"description"`
	UpdatedBy   string          `bson:"updatedBy,omitempty" json:"updatedBy,omitempty"`
	UpdatedAt   time.Time       `bson:"updatedAt" json:"updatedAt"`
}

type SiteSettingKey struct {
	Key         string
	Description string
}

// SiteSettingKeys lists the settings the back office may edit, in display
// order.
var SiteSettingKeys = []SiteSettingKey{
	{Key: "hero_title", Description: "Main hero section title"},
	{Key: "hero_subtitle", Description: "Hero section subtitle"},
	{Key: "contact_phone", Description: "Primary contact phone number"},
	{Key: "contact_email", Description: "Primary contact email"},
	{Key: "business_address", Description: "Business address"},
	{Key: "delivery_time", Description: "Standard delivery time"},
	{Key: "mpesa_paybill", Description: "M-Pesa Paybill number"},
	{Key: "mpesa_account", Description: "M-Pesa account number"},
}

func SiteSettingDescription(key string) (string, bool) {
	for _, k := range SiteSettingKeys {
		if k.Key == key {
			return k.Description, true
		}
	}
	return "", false
}
