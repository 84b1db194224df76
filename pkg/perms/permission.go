package perms

import "strings"

// Permission is a bit set over the platform's closed permission enumeration.
// The domain defines more than 64 flags, so the set spans two machine words.
// Permission is a comparable value type and can be used as a map key.
type Permission struct {
	Lo uint64
	Hi uint64
}

// None is the empty permission set.
var None = Permission{}

// fromBit builds a single-flag permission. Bits 0-63 live in Lo,
// bits 64-127 in Hi.
func fromBit(bit uint) Permission {
	if bit < 64 {
		return Permission{Lo: 1 << bit}
	}
	return Permission{Hi: 1 << (bit - 64)}
}

// Add returns the union of p and other. Union is commutative, associative
// and idempotent; composed role permissions only ever grow.
func (p Permission) Add(other Permission) Permission {
	return Permission{Lo: p.Lo | other.Lo, Hi: p.Hi | other.Hi}
}

// Has reports whether every flag of other is present in p.
func (p Permission) Has(other Permission) bool {
	return p.Lo&other.Lo == other.Lo && p.Hi&other.Hi == other.Hi
}

// Intersect returns the flags present in both p and other.
func (p Permission) Intersect(other Permission) Permission {
	return Permission{Lo: p.Lo & other.Lo, Hi: p.Hi & other.Hi}
}

// IsNone reports whether no flag is set.
func (p Permission) IsNone() bool {
	return p.Lo == 0 && p.Hi == 0
}

// String returns the pipe-separated names of the flags set in p,
// in declaration order. Used for logs and audit entries.
func (p Permission) String() string {
	if p.IsNone() {
		return "none"
	}
	var names []string
	for _, f := range allFlags {
		if p.Has(f.perm) {
			names = append(names, f.name)
		}
	}
	return strings.Join(names, "|")
}

// User and account flags.
var (
	ViewPublicInfo      = fromBit(0)
	EditOwnUserSettings = fromBit(1)
	EditApiKeys         = fromBit(2)
	EditAllUserSettings = fromBit(3)
	ViewUserActivity    = fromBit(4)
	LockUsers           = fromBit(5)
)

// Project flags.
var (
	CreateProject          = fromBit(10)
	EditProjectSettings    = fromBit(11)
	ManageProjectMembers   = fromBit(12)
	IsProjectMember        = fromBit(13)
	IsProjectOwner         = fromBit(14)
	DeleteProject          = fromBit(15)
	HardDeleteProject      = fromBit(16)
	RestoreProject         = fromBit(17)
	CreateProjectChannel   = fromBit(18)
	EditProjectChannels    = fromBit(19)
	DeleteProjectChannel   = fromBit(20)
	EditProjectNotes       = fromBit(21)
	TransferProject        = fromBit(22)
	ViewProjectSettings    = fromBit(23)
	EditProjectIcon        = fromBit(24)
	ManageProjectInvites   = fromBit(25)
	ViewProjectInsights    = fromBit(26)
	PinProject             = fromBit(27)
	WatchProject           = fromBit(28)
	FlagProject            = fromBit(29)
)

// Version flags.
var (
	CreateVersion        = fromBit(30)
	EditVersion          = fromBit(31)
	DeleteVersion        = fromBit(32)
	HardDeleteVersion    = fromBit(33)
	RestoreVersion       = fromBit(34)
	ReviewVersion        = fromBit(35)
	ApproveVersion       = fromBit(36)
	PublishVersion       = fromBit(37)
	EditVersionChangelog = fromBit(38)
	ViewVersionDownloads = fromBit(39)
)

// Page flags.
var (
	CreatePage      = fromBit(40)
	EditPage        = fromBit(41)
	DeletePage      = fromBit(42)
	ViewPageHistory = fromBit(43)
	RestorePage     = fromBit(44)
)

// Organization flags.
var (
	CreateOrganization        = fromBit(45)
	PostAsOrganization        = fromBit(46)
	IsOrganizationMember      = fromBit(47)
	IsOrganizationOwner       = fromBit(48)
	EditOrganizationSettings  = fromBit(49)
	ManageOrganizationMembers = fromBit(50)
	DeleteOrganization        = fromBit(51)
	TransferOrganization      = fromBit(52)
	ViewOrganizationInsights  = fromBit(53)
	InviteOrganizationMembers = fromBit(54)
)

// Moderation flags.
var (
	ModNotesAndFlags   = fromBit(55)
	SeeHidden          = fromBit(56)
	IsStaff            = fromBit(57)
	Reviewer           = fromBit(58)
	ViewLogs           = fromBit(59)
	ViewStats          = fromBit(60)
	ViewHealth         = fromBit(61)
	ViewIP             = fromBit(62)
	ManualValueChanges = fromBit(63)
)

// Administration flags. These sit past bit 63, which is why Permission
// carries two words.
var (
	ManageRoles            = fromBit(64)
	ManageJobs             = fromBit(65)
	ManagePlatformSettings = fromBit(66)
	ImpersonateUser        = fromBit(67)
	ViewAdminArea          = fromBit(68)
	ManageAnnouncements    = fromBit(69)
	ManageBilling          = fromBit(70)
	RestoreAnything        = fromBit(71)
)

type flag struct {
	name string
	perm Permission
}

var allFlags = []flag{
	{"view_public_info", ViewPublicInfo},
	{"edit_own_user_settings", EditOwnUserSettings},
	{"edit_api_keys", EditApiKeys},
	{"edit_all_user_settings", EditAllUserSettings},
	{"view_user_activity", ViewUserActivity},
	{"lock_users", LockUsers},
	{"create_project", CreateProject},
	{"edit_project_settings", EditProjectSettings},
	{"manage_project_members", ManageProjectMembers},
	{"is_project_member", IsProjectMember},
	{"is_project_owner", IsProjectOwner},
	{"delete_project", DeleteProject},
	{"hard_delete_project", HardDeleteProject},
	{"restore_project", RestoreProject},
	{"create_project_channel", CreateProjectChannel},
	{"edit_project_channels", EditProjectChannels},
	{"delete_project_channel", DeleteProjectChannel},
	{"edit_project_notes", EditProjectNotes},
	{"transfer_project", TransferProject},
	{"view_project_settings", ViewProjectSettings},
	{"edit_project_icon", EditProjectIcon},
	{"manage_project_invites", ManageProjectInvites},
	{"view_project_insights", ViewProjectInsights},
	{"pin_project", PinProject},
	{"watch_project", WatchProject},
	{"flag_project", FlagProject},
	{"create_version", CreateVersion},
	{"edit_version", EditVersion},
	{"delete_version", DeleteVersion},
	{"hard_delete_version", HardDeleteVersion},
	{"restore_version", RestoreVersion},
	{"review_version", ReviewVersion},
	{"approve_version", ApproveVersion},
	{"publish_version", PublishVersion},
	{"edit_version_changelog", EditVersionChangelog},
	{"view_version_downloads", ViewVersionDownloads},
	{"create_page", CreatePage},
	{"edit_page", EditPage},
	{"delete_page", DeletePage},
	{"view_page_history", ViewPageHistory},
	{"restore_page", RestorePage},
	{"create_organization", CreateOrganization},
	{"post_as_organization", PostAsOrganization},
	{"is_organization_member", IsOrganizationMember},
	{"is_organization_owner", IsOrganizationOwner},
	{"edit_organization_settings", EditOrganizationSettings},
	{"manage_organization_members", ManageOrganizationMembers},
	{"delete_organization", DeleteOrganization},
	{"transfer_organization", TransferOrganization},
	{"view_organization_insights", ViewOrganizationInsights},
	{"invite_organization_members", InviteOrganizationMembers},
	{"mod_notes_and_flags", ModNotesAndFlags},
	{"see_hidden", SeeHidden},
	{"is_staff", IsStaff},
	{"reviewer", Reviewer},
	{"view_logs", ViewLogs},
	{"view_stats", ViewStats},
	{"view_health", ViewHealth},
	{"view_ip", ViewIP},
	{"manual_value_changes", ManualValueChanges},
	{"manage_roles", ManageRoles},
	{"manage_jobs", ManageJobs},
	{"manage_platform_settings", ManagePlatformSettings},
	{"impersonate_user", ImpersonateUser},
	{"view_admin_area", ViewAdminArea},
	{"manage_announcements", ManageAnnouncements},
	{"manage_billing", ManageBilling},
	{"restore_anything", RestoreAnything},
}

// FlagNames returns all defined flag names in declaration order.
func FlagNames() []string {
	names := make([]string, len(allFlags))
	for i, f := range allFlags {
		names[i] = f.name
	}
	return names
}
