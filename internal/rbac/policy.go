package rbac

// Permission names used by the HTTP routes.
const (
	PermLabCreate         = "lab:create"
	PermLabView           = "lab:view"
	PermSubmissionCreate  = "submission:create"
	PermSubmissionViewOwn = "submission:view-own"
	PermSubmissionViewAll = "submission:view-all"
	PermSubmissionRegrade = "submission:regrade"
	PermGradePreview      = "grade:preview"
	PermUsersList         = "users:list"
	PermChangePassword    = "user:change_password"
	PermUsersManage       = "users:manage"
)

// Default policy. Teachers can preview grading, students cannot: a preview
// against a lab's criteria would leak the expected values.
var RolePermissions = map[string][]string{
	"student": {
		PermLabView,
		PermSubmissionCreate,
		PermSubmissionViewOwn,
		PermChangePassword,
	},
	"teacher": {
		PermLabCreate,
		PermLabView,
		PermSubmissionViewAll,
		PermSubmissionRegrade,
		PermGradePreview,
		PermUsersList,
		PermChangePassword,
	},
	"admin": {
		"*", // everything
	},
}
