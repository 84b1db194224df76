package perms

// Category identifies the scope family a role belongs to.
type Category string

const (
	CategoryGlobal       Category = "global"
	CategoryProject      Category = "project"
	CategoryOrganization Category = "organization"
)

// Color is the display color attached to a role badge.
type Color string

const (
	ColorTransparent Color = "transparent"
	ColorPurple      Color = "#B400FF"
	ColorRed         Color = "#DC0000"
	ColorOrange      Color = "#FF8200"
	ColorGreen       Color = "#00DC00"
	ColorAqua        Color = "#0096FF"
)

// Role is an immutable named bundle of permissions. Roles are plain data
// records registered into the process-wide registry at startup; role ids are
// stable across releases and are what gets persisted in assignments.
type Role struct {
	// Value is the symbolic key, e.g. "Project_Owner".
	Value       string
	ID          int64
	Category    Category
	Permissions Permission
	Title       string
	Color       Color
	// Rank orders roles for display only ("highest role" badge); it never
	// participates in permission computation. Nil for non-ranked roles.
	Rank *int
	// Assignable marks roles a user or admin may grant directly. Owner
	// roles are computed from ownership and are never assignable.
	Assignable bool
}

func rank(n int) *int { return &n }

// Project role permission sets, layered lowest to highest. Higher roles are
// supersets by construction.
var (
	projectSupportPerms = IsProjectMember.Add(ViewPublicInfo)

	projectEditorPerms = projectSupportPerms.
				Add(CreatePage).Add(EditPage)

	projectDeveloperPerms = projectEditorPerms.
				Add(CreateVersion).Add(EditVersion).Add(PublishVersion).
				Add(EditVersionChangelog).Add(EditProjectChannels)

	projectOwnerPerms = projectDeveloperPerms.
				Add(IsProjectOwner).Add(EditProjectSettings).Add(ViewProjectSettings).
				Add(ManageProjectMembers).Add(ManageProjectInvites).
				Add(CreateProjectChannel).Add(DeleteProjectChannel).
				Add(DeleteVersion).Add(DeletePage).
				Add(DeleteProject).Add(TransferProject).Add(ViewProjectInsights)
)

// Organization role permission sets. Each tier layers the matching project
// role's permissions plus organization-specific flags, mirroring the
// platform's published role table.
var (
	orgSupportPerms = PostAsOrganization.Add(IsOrganizationMember)

	orgEditorPerms = projectEditorPerms.Add(orgSupportPerms)

	orgDeveloperPerms = CreateProject.Add(EditProjectSettings).
			Add(projectDeveloperPerms).Add(orgEditorPerms)

	orgAdminPerms = EditApiKeys.Add(ManageProjectMembers).
			Add(EditOwnUserSettings).Add(DeleteProject).Add(DeleteVersion).
			Add(orgDeveloperPerms)

	orgOwnerPerms = IsOrganizationOwner.Add(projectOwnerPerms).Add(orgAdminPerms)
)

// Project roles, declaration order highest to lowest.
var (
	ProjectOwner = Role{
		Value: "Project_Owner", ID: 18, Category: CategoryProject,
		Permissions: projectOwnerPerms, Title: "Owner",
		Color: ColorTransparent, Rank: rank(10), Assignable: false,
	}
	ProjectDeveloper = Role{
		Value: "Project_Developer", ID: 19, Category: CategoryProject,
		Permissions: projectDeveloperPerms, Title: "Developer",
		Color: ColorTransparent, Rank: rank(20), Assignable: true,
	}
	ProjectEditor = Role{
		Value: "Project_Editor", ID: 20, Category: CategoryProject,
		Permissions: projectEditorPerms, Title: "Editor",
		Color: ColorTransparent, Rank: rank(30), Assignable: true,
	}
	ProjectSupport = Role{
		Value: "Project_Support", ID: 21, Category: CategoryProject,
		Permissions: projectSupportPerms, Title: "Support",
		Color: ColorTransparent, Rank: rank(40), Assignable: true,
	}
)

// Organization roles, declaration order highest to lowest. Ids are fixed by
// the persisted role table and never reused.
var (
	OrganizationOwner = Role{
		Value: "Organization_Owner", ID: 24, Category: CategoryOrganization,
		Permissions: orgOwnerPerms, Title: "Owner",
		Color: ColorPurple, Assignable: false,
	}
	OrganizationAdmin = Role{
		Value: "Organization_Admin", ID: 25, Category: CategoryOrganization,
		Permissions: orgAdminPerms, Title: "Admin",
		Color: ColorTransparent, Assignable: true,
	}
	OrganizationDeveloper = Role{
		Value: "Organization_Developer", ID: 26, Category: CategoryOrganization,
		Permissions: orgDeveloperPerms, Title: "Developer",
		Color: ColorTransparent, Assignable: true,
	}
	OrganizationEditor = Role{
		Value: "Organization_Editor", ID: 27, Category: CategoryOrganization,
		Permissions: orgEditorPerms, Title: "Editor",
		Color: ColorTransparent, Assignable: true,
	}
	OrganizationSupport = Role{
		Value: "Organization_Support", ID: 28, Category: CategoryOrganization,
		Permissions: orgSupportPerms, Title: "Support",
		Color: ColorTransparent, Assignable: true,
	}
)

// Global roles grant base permissions independent of any scope.
var (
	PlatformAdmin = Role{
		Value: "Platform_Admin", ID: 1, Category: CategoryGlobal,
		Permissions: ViewPublicInfo.Add(EditAllUserSettings).Add(ViewUserActivity).
			Add(LockUsers).Add(ModNotesAndFlags).Add(SeeHidden).Add(IsStaff).
			Add(Reviewer).Add(ViewLogs).Add(ViewStats).Add(ViewHealth).Add(ViewIP).
			Add(ManualValueChanges).Add(HardDeleteProject).Add(HardDeleteVersion).
			Add(RestoreProject).Add(RestoreVersion).Add(RestoreAnything).
			Add(ManageRoles).Add(ManageJobs).Add(ManagePlatformSettings).
			Add(ViewAdminArea).Add(ManageAnnouncements),
		Title: "Admin", Color: ColorRed, Rank: rank(1), Assignable: true,
	}
	PlatformModerator = Role{
		Value: "Platform_Moderator", ID: 2, Category: CategoryGlobal,
		Permissions: ViewPublicInfo.Add(ModNotesAndFlags).Add(SeeHidden).
			Add(IsStaff).Add(Reviewer).Add(ViewLogs).Add(ViewStats),
		Title: "Moderator", Color: ColorAqua, Rank: rank(2), Assignable: true,
	}
	// OrganizationAccount marks the service account backing an
	// organization; it is a computed state, never granted.
	OrganizationAccount = Role{
		Value: "Organization_Account", ID: 3, Category: CategoryGlobal,
		Permissions: ViewPublicInfo, Title: "Organization",
		Color: ColorPurple, Assignable: false,
	}
)

// projectRoles, organizationRoles and globalRoles are the closed role tables
// fed to BuildRegistry at startup. Slice order is the enumeration order.
var (
	projectRoles      = []Role{ProjectOwner, ProjectDeveloper, ProjectEditor, ProjectSupport}
	organizationRoles = []Role{OrganizationOwner, OrganizationAdmin, OrganizationDeveloper, OrganizationEditor, OrganizationSupport}
	globalRoles       = []Role{PlatformAdmin, PlatformModerator, OrganizationAccount}
)

// orgProjectPermissions maps every organization role to the project-level
// permission view an organization member receives on projects owned by the
// organization. The mapping is total: each tier maps to the project-role
// permissions it layers, admins additionally to member/version management.
var orgProjectPermissions = map[int64]Permission{
	OrganizationSupport.ID:   projectSupportPerms,
	OrganizationEditor.ID:    projectEditorPerms,
	OrganizationDeveloper.ID: projectDeveloperPerms,
	OrganizationAdmin.ID:     projectDeveloperPerms.Add(ManageProjectMembers).Add(DeleteProject).Add(DeleteVersion),
	OrganizationOwner.ID:     projectOwnerPerms,
}

// OrgProjectPermissions returns the project permission view for an
// organization role id. The bool is false for unknown ids; every registered
// organization role has a defined, non-empty mapping.
func OrgProjectPermissions(orgRoleID int64) (Permission, bool) {
	p, ok := orgProjectPermissions[orgRoleID]
	return p, ok
}
