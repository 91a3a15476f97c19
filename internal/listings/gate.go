// Package listings gates published list content by account role,
// provenance and content sensitivity.
package listings

import "github.com/courtlist/courtlist/internal/accounts"

// thirdPartyEntitlements maps press-entitled third-party roles to the
// list categories they may view at CLASSIFIED sensitivity.
var thirdPartyEntitlements = map[accounts.Role][]Category{
	accounts.RoleThirdPartyCFT:   {CategoryCFT},
	accounts.RoleThirdPartyCrime: {CategoryCrime},
	accounts.RoleThirdPartyPress: {CategoryPress},
	accounts.RoleThirdPartyAll:   {CategoryCFT, CategoryCrime, CategoryPress},
}

// MayView decides whether an account with the given role and provenance
// may view content of the given list type and sensitivity. The function
// is pure and total: any combination outside the declared rules is
// false, never a panic.
func MayView(role accounts.Role, provenance accounts.Provenance, listType ListType, sensitivity Sensitivity) bool {
	switch sensitivity {
	case SensitivityPublic:
		return true
	case SensitivityPrivate:
		tier := role.Tier()
		return tier == accounts.TierStandard || tier == accounts.TierThirdParty
	case SensitivityClassified:
		if role.Tier() == accounts.TierStandard && provenance.IsCaseManagement() {
			return true
		}
		category := listType.Category()
		if category == "" {
			return false
		}
		for _, entitled := range thirdPartyEntitlements[role] {
			if entitled == category {
				return true
			}
		}
		return false
	}
	return false
}
