package rbac

// Default policy.
var RolePermissions = map[string][]string{
	"viewer": {
		"question:view",
	},
	"editor": {
		"question:author",
		"question:create",
		"question:edit",
		"question:view",
		"question:export",
	},
	"admin": {
		"*", // everything
	},
}
