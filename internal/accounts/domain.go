package accounts

import "time"

// Role is the closed set of account roles. A role fixes both the
// management tier used by the authorizer and the content-sensitivity
// tier used by the listings gate.
type Role string

const (
	RoleSystemAdmin       Role = "SYSTEM_ADMIN"
	RoleSuperAdminCTSC    Role = "INTERNAL_SUPER_ADMIN_CTSC"
	RoleSuperAdminLocal   Role = "INTERNAL_SUPER_ADMIN_LOCAL"
	RoleAdminCTSC         Role = "INTERNAL_ADMIN_CTSC"
	RoleAdminLocal        Role = "INTERNAL_ADMIN_LOCAL"
	RoleVerified          Role = "VERIFIED"
	RoleGeneralThirdParty Role = "GENERAL_THIRD_PARTY"
	RoleThirdPartyCFT     Role = "VERIFIED_THIRD_PARTY_CFT"
	RoleThirdPartyCrime   Role = "VERIFIED_THIRD_PARTY_CRIME"
	RoleThirdPartyPress   Role = "VERIFIED_THIRD_PARTY_PRESS"
	RoleThirdPartyAll     Role = "VERIFIED_THIRD_PARTY_ALL"
)

// AllRoles lists every recognised role.
var AllRoles = []Role{
	RoleSystemAdmin,
	RoleSuperAdminCTSC,
	RoleSuperAdminLocal,
	RoleAdminCTSC,
	RoleAdminLocal,
	RoleVerified,
	RoleGeneralThirdParty,
	RoleThirdPartyCFT,
	RoleThirdPartyCrime,
	RoleThirdPartyPress,
	RoleThirdPartyAll,
}

// Valid reports whether the role is one of the recognised values.
func (r Role) Valid() bool {
	switch r {
	case RoleSystemAdmin, RoleSuperAdminCTSC, RoleSuperAdminLocal,
		RoleAdminCTSC, RoleAdminLocal, RoleVerified,
		RoleGeneralThirdParty, RoleThirdPartyCFT, RoleThirdPartyCrime,
		RoleThirdPartyPress, RoleThirdPartyAll:
		return true
	}
	return false
}

// Tier is the derived management ordering over roles. The four admin
// tiers form a strict total order; TierThirdParty sits outside it and
// never compares against the others.
type Tier int

const (
	TierUnknown Tier = iota
	TierThirdParty
	TierStandard
	TierAdmin
	TierSuperAdmin
	TierSystemAdmin
)

// Tier maps the role to its management tier. Every role must appear
// here; an unrecognised role maps to TierUnknown, which no rule table
// ever grants.
func (r Role) Tier() Tier {
	switch r {
	case RoleSystemAdmin:
		return TierSystemAdmin
	case RoleSuperAdminCTSC, RoleSuperAdminLocal:
		return TierSuperAdmin
	case RoleAdminCTSC, RoleAdminLocal:
		return TierAdmin
	case RoleVerified:
		return TierStandard
	case RoleGeneralThirdParty, RoleThirdPartyCFT, RoleThirdPartyCrime,
		RoleThirdPartyPress, RoleThirdPartyAll:
		return TierThirdParty
	}
	return TierUnknown
}

// IsThirdParty reports whether the role belongs to the third-party tier.
func (r Role) IsThirdParty() bool {
	return r.Tier() == TierThirdParty
}

func (t Tier) String() string {
	switch t {
	case TierSystemAdmin:
		return "SYSTEM_ADMIN"
	case TierSuperAdmin:
		return "SUPER_ADMIN"
	case TierAdmin:
		return "ADMIN"
	case TierStandard:
		return "STANDARD"
	case TierThirdParty:
		return "THIRD_PARTY"
	}
	return "UNKNOWN"
}

// Provenance identifies the origin system an account was created through.
type Provenance string

const (
	ProvenanceInternalDirectory Provenance = "INTERNAL_DIRECTORY"
	ProvenanceCourtIdam         Provenance = "COURT_IDAM"
	ProvenanceCrimeIdam         Provenance = "CRIME_IDAM"
	ProvenanceSSO               Provenance = "SSO"
	ProvenanceThirdParty        Provenance = "THIRD_PARTY"
)

// Valid reports whether the provenance is one of the recognised values.
func (p Provenance) Valid() bool {
	switch p {
	case ProvenanceInternalDirectory, ProvenanceCourtIdam,
		ProvenanceCrimeIdam, ProvenanceSSO, ProvenanceThirdParty:
		return true
	}
	return false
}

// IsCaseManagement reports whether the provenance is a court or crime
// case-management origin.
func (p Provenance) IsCaseManagement() bool {
	return p == ProvenanceCourtIdam || p == ProvenanceCrimeIdam
}

// Account is the canonical identity record for the publication platform.
type Account struct {
	ID           string
	Provenance   Provenance
	ProvenanceID string
	Email        string
	Role         Role
	Forenames    string
	Surname      string
	CreatedDate  time.Time
	LastVerified *time.Time
	LastSignedIn *time.Time
}

// DisplayName joins the optional name fields for notification templates.
func (a Account) DisplayName() string {
	switch {
	case a.Forenames != "" && a.Surname != "":
		return a.Forenames + " " + a.Surname
	case a.Surname != "":
		return a.Surname
	default:
		return a.Forenames
	}
}
