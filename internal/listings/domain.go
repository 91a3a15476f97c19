package listings

// Sensitivity classifies published list content.
type Sensitivity string

const (
	SensitivityPublic     Sensitivity = "PUBLIC"
	SensitivityPrivate    Sensitivity = "PRIVATE"
	SensitivityClassified Sensitivity = "CLASSIFIED"
)

// Category groups list types for third-party press entitlements.
type Category string

const (
	CategoryCFT   Category = "CFT"
	CategoryCrime Category = "CRIME"
	CategoryPress Category = "PRESS"
)

// ListType identifies a published list. Each type belongs to exactly
// one category.
type ListType string

const (
	ListCivilDailyCause    ListType = "CIVIL_DAILY_CAUSE_LIST"
	ListFamilyDailyCause   ListType = "FAMILY_DAILY_CAUSE_LIST"
	ListTribunalHearing    ListType = "TRIBUNAL_HEARING_LIST"
	ListCrownDailyCause    ListType = "CROWN_DAILY_CAUSE_LIST"
	ListMagistratesPublic  ListType = "MAGISTRATES_PUBLIC_LIST"
	ListSingleJusticePress ListType = "SJP_PRESS_LIST"
)

// Category maps the list type to its entitlement category. Unknown list
// types map to the press category's complement: an empty category that
// no entitlement set contains.
func (l ListType) Category() Category {
	switch l {
	case ListCivilDailyCause, ListFamilyDailyCause, ListTribunalHearing:
		return CategoryCFT
	case ListCrownDailyCause, ListMagistratesPublic:
		return CategoryCrime
	case ListSingleJusticePress:
		return CategoryPress
	}
	return ""
}
