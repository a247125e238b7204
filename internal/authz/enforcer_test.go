// VCarpool DR - Backup and Disaster Recovery for the VCarpool Platform
// Copyright 2026 Ved Prakash (vedprakash-m)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedprakash-m/vcarpool-dr

package authz

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// setupEnforcer creates an enforcer with default config and registers cleanup.
func setupEnforcer(t *testing.T) *Enforcer {
	t.Helper()
	ctx := context.Background()
	enforcer, err := NewEnforcer(ctx, nil)
	if err != nil {
		t.Fatalf("NewEnforcer() error = %v", err)
	}
	t.Cleanup(func() { enforcer.Close() })
	return enforcer
}

// setupEnforcerWithConfig creates an enforcer with custom config.
func setupEnforcerWithConfig(t *testing.T, config *EnforcerConfig) *Enforcer {
	t.Helper()
	ctx := context.Background()
	enforcer, err := NewEnforcer(ctx, config)
	if err != nil {
		t.Fatalf("NewEnforcer() error = %v", err)
	}
	t.Cleanup(func() { enforcer.Close() })
	return enforcer
}

// setupTempPolicyFile writes a policy file into a temp dir and returns its path.
func setupTempPolicyFile(t *testing.T, policyContent string) string {
	t.Helper()
	policyPath := filepath.Join(t.TempDir(), "policy.csv")
	if err := os.WriteFile(policyPath, []byte(policyContent), 0644); err != nil {
		t.Fatalf("Failed to write policy file: %v", err)
	}
	return policyPath
}

// assertEnforce checks that enforcement returns the expected result.
func assertEnforce(t *testing.T, enforcer *Enforcer, subject, object, action string, want bool) {
	t.Helper()
	got, err := enforcer.Enforce(subject, object, action)
	if err != nil {
		t.Errorf("Enforce(%q, %q, %q) error = %v", subject, object, action, err)
		return
	}
	if got != want {
		t.Errorf("Enforce(%q, %q, %q) = %v, want %v", subject, object, action, got, want)
	}
}

func TestEnforcer_Creation(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		config  *EnforcerConfig
		wantErr bool
	}{
		{
			name:    "nil config uses defaults",
			config:  nil,
			wantErr: false,
		},
		{
			name: "custom config",
			config: &EnforcerConfig{
				DefaultRole:  "viewer",
				CacheEnabled: true,
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enforcer, err := NewEnforcer(ctx, tt.config)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewEnforcer() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && enforcer == nil {
				t.Error("NewEnforcer() returned nil enforcer")
			}
			if enforcer != nil {
				enforcer.Close()
			}
		})
	}
}

func TestDefaultEnforcerConfig(t *testing.T) {
	config := DefaultEnforcerConfig()

	if config == nil {
		t.Fatal("DefaultEnforcerConfig() returned nil")
	}
	if !config.AutoReload {
		t.Error("AutoReload should be true by default")
	}
	if config.ReloadInterval != 30*time.Second {
		t.Errorf("ReloadInterval = %v, want 30s", config.ReloadInterval)
	}
	if config.DefaultRole != "viewer" {
		t.Errorf("DefaultRole = %q, want 'viewer'", config.DefaultRole)
	}
	if !config.CacheEnabled {
		t.Error("CacheEnabled should be true by default")
	}
	if config.CacheTTL != 5*time.Minute {
		t.Errorf("CacheTTL = %v, want 5m", config.CacheTTL)
	}
}

// TestEnforcer_BasicRBAC covers the built-in admin, operator, and viewer
// roles against the routes the ops API exposes.
func TestEnforcer_BasicRBAC(t *testing.T) {
	enforcer := setupEnforcer(t)

	tests := []struct {
		name    string
		subject string
		object  string
		action  string
		want    bool
	}{
		// Admin holds the wildcard action
		{"admin reads the catalog", "admin", "/api/v1/backups", "read", true},
		{"admin triggers a backup", "admin", "/api/v1/backups", "write", true},
		{"admin deletes a backup", "admin", "/api/v1/backups/bkp-1", "delete", true},
		{"admin executes recovery", "admin", "/api/v1/dr/execute", "write", true},

		// Operator can write but never delete
		{"operator triggers a backup", "operator", "/api/v1/backups", "write", true},
		{"operator restores a backup", "operator", "/api/v1/backups/bkp-1/restore", "write", true},
		{"operator reads stats via inheritance", "operator", "/api/v1/backups/stats", "read", true},
		{"operator cannot delete a backup", "operator", "/api/v1/backups/bkp-1", "delete", false},

		// Viewer is read-only
		{"viewer reads the catalog", "viewer", "/api/v1/backups", "read", true},
		{"viewer reads the recovery plan", "viewer", "/api/v1/dr/plan", "read", true},
		{"viewer cannot trigger a backup", "viewer", "/api/v1/backups", "write", false},
		{"viewer cannot execute recovery", "viewer", "/api/v1/dr/execute", "write", false},
		{"viewer cannot delete a backup", "viewer", "/api/v1/backups/bkp-1", "delete", false},

		// Nothing matches outside the API tree or for unknown roles
		{"unknown role denied", "unknown", "/api/v1/backups", "read", false},
		{"no policy outside the api tree", "admin", "/metrics", "read", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertEnforce(t, enforcer, tt.subject, tt.object, tt.action, tt.want)
		})
	}
}

func TestEnforcer_EnforceWithRoles(t *testing.T) {
	enforcer := setupEnforcer(t)

	tests := []struct {
		name    string
		subject string
		roles   []string
		object  string
		action  string
		want    bool
	}{
		{
			name:    "user with admin role",
			subject: "user-123",
			roles:   []string{"admin"},
			object:  "/api/v1/backups/bkp-1",
			action:  "delete",
			want:    true,
		},
		{
			name:    "user with operator role",
			subject: "user-456",
			roles:   []string{"operator"},
			object:  "/api/v1/retention/apply",
			action:  "write",
			want:    true,
		},
		{
			name:    "user with viewer role cannot write",
			subject: "user-789",
			roles:   []string{"viewer"},
			object:  "/api/v1/backups",
			action:  "write",
			want:    false,
		},
		{
			name:    "user with multiple roles",
			subject: "user-multi",
			roles:   []string{"viewer", "operator"},
			object:  "/api/v1/backups",
			action:  "write",
			want:    true, // operator can write
		},
		{
			name:    "user with no roles gets default role",
			subject: "user-noroles",
			roles:   []string{},
			object:  "/api/v1/backups",
			action:  "read",
			want:    true, // default role viewer can read
		},
		{
			name:    "default role does not grant writes",
			subject: "user-noroles",
			roles:   []string{},
			object:  "/api/v1/backups",
			action:  "write",
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := enforcer.EnforceWithRoles(tt.subject, tt.roles, tt.object, tt.action)
			if err != nil {
				t.Errorf("EnforceWithRoles() error = %v", err)
				return
			}
			if got != tt.want {
				t.Errorf("EnforceWithRoles(%q, %v, %q, %q) = %v, want %v",
					tt.subject, tt.roles, tt.object, tt.action, got, tt.want)
			}
		})
	}
}

func TestEnforcer_EnforceWithRoles_DirectPermission(t *testing.T) {
	enforcer := setupEnforcer(t)

	// Grant a direct permission to a user, not via a role.
	_, err := enforcer.AddPolicy("user-direct", "/api/v1/backups/stats", "read")
	if err != nil {
		t.Fatalf("AddPolicy() error = %v", err)
	}

	allowed, err := enforcer.EnforceWithRoles("user-direct", nil, "/api/v1/backups/stats", "read")
	if err != nil {
		t.Fatalf("EnforceWithRoles() error = %v", err)
	}
	if !allowed {
		t.Error("User should have access via direct permission")
	}
}

func TestEnforcer_EnforceWithRoles_NoDefaultRole(t *testing.T) {
	config := &EnforcerConfig{
		DefaultRole:  "",
		CacheEnabled: true,
	}
	enforcer := setupEnforcerWithConfig(t, config)

	allowed, err := enforcer.EnforceWithRoles("user-no-default", []string{}, "/api/v1/backups", "read")
	if err != nil {
		t.Fatalf("EnforceWithRoles() error = %v", err)
	}
	if allowed {
		t.Error("User with no roles and no default role should be denied")
	}
}

func TestEnforcer_EnforceWithRoles_RoleOrder(t *testing.T) {
	enforcer := setupEnforcer(t)

	// Access is granted when any role allows, regardless of order.
	allowed, err := enforcer.EnforceWithRoles("multi-role-user", []string{"admin", "viewer"}, "/api/v1/backups/bkp-9", "delete")
	if err != nil {
		t.Fatalf("EnforceWithRoles() error = %v", err)
	}
	if !allowed {
		t.Error("User with admin role should have access")
	}

	allowed, err = enforcer.EnforceWithRoles("multi-role-user", []string{"viewer", "admin"}, "/api/v1/backups/bkp-9", "delete")
	if err != nil {
		t.Fatalf("EnforceWithRoles() error = %v", err)
	}
	if !allowed {
		t.Error("User with admin as second role should still have access")
	}
}

// TestEnforcer_PathMatching exercises keyMatch against the wildcard
// object in the built-in policy.
func TestEnforcer_PathMatching(t *testing.T) {
	enforcer := setupEnforcer(t)

	tests := []struct {
		name   string
		object string
		want   bool
	}{
		{"collection path", "/api/v1/backups", true},
		{"single resource", "/api/v1/backups/bkp-20260815-0300", true},
		{"nested action path", "/api/v1/backups/bkp-1/validate", true},
		{"audit subtree", "/api/v1/audit/events", true},
		{"outside the api tree", "/healthz", false},
		{"different version prefix", "/api/v2/backups", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertEnforce(t, enforcer, "viewer", tt.object, "read", tt.want)
		})
	}
}

// TestEnforcer_ExtraPolicies verifies that configured policy lines stack
// on top of the embedded policy.
func TestEnforcer_ExtraPolicies(t *testing.T) {
	config := &EnforcerConfig{
		CacheEnabled: false,
		ExtraPolicies: []string{
			"# deployment grants",
			"p, ci-export, /api/v1/backups, read",
			"g, asha, operator",
		},
	}
	enforcer := setupEnforcerWithConfig(t, config)

	// Direct grant applies to exactly one path.
	assertEnforce(t, enforcer, "ci-export", "/api/v1/backups", "read", true)
	assertEnforce(t, enforcer, "ci-export", "/api/v1/dr/plan", "read", false)
	assertEnforce(t, enforcer, "ci-export", "/api/v1/backups", "write", false)

	// Role assignment inherits the operator permissions.
	assertEnforce(t, enforcer, "asha", "/api/v1/backups", "write", true)
	assertEnforce(t, enforcer, "asha", "/api/v1/backups/bkp-1", "delete", false)
}

func TestEnforcer_RoleManagement(t *testing.T) {
	enforcer := setupEnforcer(t)
	userID := "user-12345"

	// Initially user has no roles
	roles, err := enforcer.GetRolesForUser(userID)
	if err != nil {
		t.Fatalf("GetRolesForUser() error = %v", err)
	}
	if len(roles) != 0 {
		t.Errorf("New user should have no roles, got %v", roles)
	}

	// Add operator role
	added, err := enforcer.AddRoleForUser(userID, "operator")
	if err != nil {
		t.Fatalf("AddRoleForUser() error = %v", err)
	}
	if !added {
		t.Error("AddRoleForUser() should return true for new assignment")
	}

	roles, err = enforcer.GetRolesForUser(userID)
	if err != nil {
		t.Fatalf("GetRolesForUser() error = %v", err)
	}
	if len(roles) != 1 || roles[0] != "operator" {
		t.Errorf("User should have operator role, got %v", roles)
	}

	// User can now write, and read through role inheritance
	assertEnforce(t, enforcer, userID, "/api/v1/backups", "write", true)
	assertEnforce(t, enforcer, userID, "/api/v1/backups", "read", true)

	// Remove role
	removed, err := enforcer.DeleteRoleForUser(userID, "operator")
	if err != nil {
		t.Fatalf("DeleteRoleForUser() error = %v", err)
	}
	if !removed {
		t.Error("DeleteRoleForUser() should return true")
	}

	assertEnforce(t, enforcer, userID, "/api/v1/backups", "write", false)
}

func TestEnforcer_AddRoleForUser_CacheInvalidation(t *testing.T) {
	config := &EnforcerConfig{CacheEnabled: true}
	enforcer := setupEnforcerWithConfig(t, config)
	userID := "cache-user-add"

	// Cache a denial for this user
	allowed, _ := enforcer.Enforce(userID, "/api/v1/backups/bkp-1", "delete")
	if allowed {
		t.Error("User should not have access initially")
	}

	// Granting admin must invalidate the cached denial
	if _, err := enforcer.AddRoleForUser(userID, "admin"); err != nil {
		t.Fatalf("AddRoleForUser() error = %v", err)
	}

	allowed, _ = enforcer.Enforce(userID, "/api/v1/backups/bkp-1", "delete")
	if !allowed {
		t.Error("User should have access after role added")
	}
}

func TestEnforcer_DeleteRoleForUser_CacheInvalidation(t *testing.T) {
	config := &EnforcerConfig{CacheEnabled: true}
	enforcer := setupEnforcerWithConfig(t, config)
	userID := "cache-user-delete"

	if _, err := enforcer.AddRoleForUser(userID, "admin"); err != nil {
		t.Fatalf("AddRoleForUser() error = %v", err)
	}

	// Cache the allowed decision
	allowed, _ := enforcer.Enforce(userID, "/api/v1/backups/bkp-1", "delete")
	if !allowed {
		t.Error("User should have access with admin role")
	}

	if _, err := enforcer.DeleteRoleForUser(userID, "admin"); err != nil {
		t.Fatalf("DeleteRoleForUser() error = %v", err)
	}

	allowed, _ = enforcer.Enforce(userID, "/api/v1/backups/bkp-1", "delete")
	if allowed {
		t.Error("User should not have access after role removed")
	}
}

func TestEnforcer_AddPolicy(t *testing.T) {
	enforcer := setupEnforcer(t)

	added, err := enforcer.AddPolicy("custom-user", "/api/v1/dr/plan", "read")
	if err != nil {
		t.Fatalf("AddPolicy() error = %v", err)
	}
	if !added {
		t.Error("AddPolicy() should return true for new policy")
	}

	assertEnforce(t, enforcer, "custom-user", "/api/v1/dr/plan", "read", true)

	// Adding the same policy again reports a duplicate
	added, err = enforcer.AddPolicy("custom-user", "/api/v1/dr/plan", "read")
	if err != nil {
		t.Fatalf("AddPolicy() error = %v", err)
	}
	if added {
		t.Error("AddPolicy() should return false for duplicate policy")
	}
}

func TestEnforcer_RemovePolicy(t *testing.T) {
	enforcer := setupEnforcer(t)

	if _, err := enforcer.AddPolicy("remove-test-user", "/api/v1/backups/stats", "read"); err != nil {
		t.Fatalf("AddPolicy() error = %v", err)
	}
	assertEnforce(t, enforcer, "remove-test-user", "/api/v1/backups/stats", "read", true)

	removed, err := enforcer.RemovePolicy("remove-test-user", "/api/v1/backups/stats", "read")
	if err != nil {
		t.Fatalf("RemovePolicy() error = %v", err)
	}
	if !removed {
		t.Error("RemovePolicy() should return true")
	}

	assertEnforce(t, enforcer, "remove-test-user", "/api/v1/backups/stats", "read", false)

	// Removing a non-existent policy reports false
	removed, err = enforcer.RemovePolicy("non-existent", "/api/v1/nothing", "read")
	if err != nil {
		t.Fatalf("RemovePolicy() error = %v", err)
	}
	if removed {
		t.Error("RemovePolicy() should return false for non-existent policy")
	}
}

func TestEnforcer_GetPolicy(t *testing.T) {
	enforcer := setupEnforcer(t)

	policies := enforcer.GetPolicy()
	if len(policies) == 0 {
		t.Error("GetPolicy() should return the embedded policies")
	}

	for i, policy := range policies {
		if len(policy) < 3 {
			t.Errorf("Policy %d has %d elements, want at least 3", i, len(policy))
		}
	}
}

func TestEnforcer_GetFilteredPolicy(t *testing.T) {
	enforcer := setupEnforcer(t)

	adminPolicies := enforcer.GetFilteredPolicy(0, "admin")
	if len(adminPolicies) == 0 {
		t.Error("GetFilteredPolicy() should return admin policies")
	}
	for _, policy := range adminPolicies {
		if len(policy) > 0 && policy[0] != "admin" {
			t.Errorf("Filtered policy has subject %q, want 'admin'", policy[0])
		}
	}

	viewerPolicies := enforcer.GetFilteredPolicy(0, "viewer")
	if len(viewerPolicies) == 0 {
		t.Error("GetFilteredPolicy() should return viewer policies")
	}
}

func TestEnforcer_GetGroupingPolicy(t *testing.T) {
	enforcer := setupEnforcer(t)

	groupings := enforcer.GetGroupingPolicy()

	// The embedded policy links admin -> operator -> viewer
	if len(groupings) < 2 {
		t.Errorf("GetGroupingPolicy() returned %d rules, want at least 2", len(groupings))
	}
	for i, grouping := range groupings {
		if len(grouping) < 2 {
			t.Errorf("Grouping %d has %d elements, want at least 2", i, len(grouping))
		}
	}
}

func TestEnforcer_AddGroupingPolicy(t *testing.T) {
	enforcer := setupEnforcer(t)

	if err := enforcer.AddGroupingPolicy("grouping-test-user", "admin"); err != nil {
		t.Fatalf("AddGroupingPolicy() error = %v", err)
	}

	roles, _ := enforcer.GetRolesForUser("grouping-test-user")
	found := false
	for _, r := range roles {
		if r == "admin" {
			found = true
			break
		}
	}
	if !found {
		t.Error("User should have admin role after AddGroupingPolicy")
	}
}

func TestEnforcer_RemoveGroupingPolicy(t *testing.T) {
	enforcer := setupEnforcer(t)

	if err := enforcer.AddGroupingPolicy("remove-grouping-user", "operator"); err != nil {
		t.Fatalf("AddGroupingPolicy() error = %v", err)
	}
	if err := enforcer.RemoveGroupingPolicy("remove-grouping-user", "operator"); err != nil {
		t.Fatalf("RemoveGroupingPolicy() error = %v", err)
	}

	roles, _ := enforcer.GetRolesForUser("remove-grouping-user")
	for _, r := range roles {
		if r == "operator" {
			t.Error("User should not have operator role after RemoveGroupingPolicy")
		}
	}
}

func TestEnforcer_GetUsersForRole(t *testing.T) {
	enforcer := setupEnforcer(t)

	enforcer.AddRoleForUser("user-op-1", "operator")
	enforcer.AddRoleForUser("user-op-2", "operator")
	enforcer.AddRoleForUser("user-view-1", "viewer")

	users, err := enforcer.GetUsersForRole("operator")
	if err != nil {
		t.Fatalf("GetUsersForRole() error = %v", err)
	}

	userMap := make(map[string]bool)
	for _, u := range users {
		userMap[u] = true
	}
	if !userMap["user-op-1"] || !userMap["user-op-2"] {
		t.Errorf("operator role should include both users, got %v", users)
	}
}

func TestEnforcer_CacheDisabled(t *testing.T) {
	config := &EnforcerConfig{CacheEnabled: false}
	enforcer := setupEnforcerWithConfig(t, config)

	assertEnforce(t, enforcer, "viewer", "/api/v1/backups", "read", true)
}

func TestFileExists(t *testing.T) {
	if !fileExists("enforcer_test.go") {
		t.Error("fileExists() should return true for existing file")
	}
	if fileExists("non-existent-file-12345.txt") {
		t.Error("fileExists() should return false for non-existing file")
	}
	if fileExists("") {
		t.Error("fileExists() should return false for empty path")
	}
}

func TestEnforcer_SavePolicy_NoAdapter(t *testing.T) {
	enforcer := setupEnforcer(t) // embedded policy, no file adapter

	err := enforcer.SavePolicy()
	if err == nil {
		t.Error("SavePolicy() should return error with no adapter")
	}
	if !errors.Is(err, ErrNoAdapter) {
		t.Errorf("SavePolicy() error = %v, want ErrNoAdapter", err)
	}
}

func TestEnforcer_LoadPolicy_NoAdapter(t *testing.T) {
	enforcer := setupEnforcer(t) // embedded policy, no file adapter

	err := enforcer.LoadPolicy()
	if err == nil {
		t.Error("LoadPolicy() should return error with no adapter")
	}
	if !errors.Is(err, ErrNoAdapter) {
		t.Errorf("LoadPolicy() error = %v, want ErrNoAdapter", err)
	}
}

func TestEnforcer_Close(t *testing.T) {
	ctx := context.Background()
	enforcer, err := NewEnforcer(ctx, nil)
	if err != nil {
		t.Fatalf("NewEnforcer() error = %v", err)
	}

	// Close must be idempotent
	enforcer.Close()
	enforcer.Close()
	enforcer.Close()
}

func TestEnforcer_InvalidModelPath(t *testing.T) {
	ctx := context.Background()
	config := &EnforcerConfig{
		ModelPath: "non-existent-model.conf",
	}
	// Missing model files fall back to the embedded model
	enforcer, err := NewEnforcer(ctx, config)
	if err != nil {
		t.Fatalf("NewEnforcer() should use embedded model when file not found: %v", err)
	}
	defer enforcer.Close()

	allowed, _ := enforcer.Enforce("admin", "/api/v1/backups", "read")
	if !allowed {
		t.Error("Admin should have access with embedded model fallback")
	}
}

func TestEnforcer_FileBasedPolicy(t *testing.T) {
	policyContent := `p, admin, /api/v1/*, *
p, auditor, /api/v1/audit/*, read
g, admin, auditor
`
	policyPath := setupTempPolicyFile(t, policyContent)

	config := &EnforcerConfig{
		PolicyPath:   policyPath,
		CacheEnabled: true,
	}
	enforcer := setupEnforcerWithConfig(t, config)

	// File policy replaces the embedded one entirely
	assertEnforce(t, enforcer, "admin", "/api/v1/backups/bkp-1", "delete", true)
	assertEnforce(t, enforcer, "auditor", "/api/v1/audit/events", "read", true)
	assertEnforce(t, enforcer, "auditor", "/api/v1/backups", "read", false)
	assertEnforce(t, enforcer, "operator", "/api/v1/backups", "write", false)
}

func TestEnforcer_SavePolicy_WithFileAdapter(t *testing.T) {
	policyPath := setupTempPolicyFile(t, "p, admin, /api/v1/*, *\n")

	ctx := context.Background()
	config := &EnforcerConfig{
		PolicyPath:   policyPath,
		CacheEnabled: false,
		AutoReload:   false,
	}
	enforcer, err := NewEnforcer(ctx, config)
	if err != nil {
		t.Fatalf("NewEnforcer() error = %v", err)
	}
	defer enforcer.Close()

	added, err := enforcer.AddPolicy("auditor", "/api/v1/audit/*", "read")
	if err != nil {
		t.Fatalf("AddPolicy() error = %v", err)
	}
	if !added {
		t.Error("AddPolicy() should return true for new policy")
	}

	if err := enforcer.SavePolicy(); err != nil {
		t.Fatalf("SavePolicy() error = %v", err)
	}

	savedContent, err := os.ReadFile(policyPath)
	if err != nil {
		t.Fatalf("Failed to read saved policy: %v", err)
	}
	if !strings.Contains(string(savedContent), "auditor") {
		t.Error("Saved policy should contain the auditor rule")
	}
}

func TestEnforcer_LoadPolicy_WithFileAdapter(t *testing.T) {
	policyPath := setupTempPolicyFile(t, "p, admin, /api/v1/*, *\n")

	ctx := context.Background()
	config := &EnforcerConfig{
		PolicyPath:   policyPath,
		CacheEnabled: true,
		AutoReload:   false,
	}
	enforcer, err := NewEnforcer(ctx, config)
	if err != nil {
		t.Fatalf("NewEnforcer() error = %v", err)
	}
	defer enforcer.Close()

	allowed, _ := enforcer.Enforce("viewer", "/api/v1/backups", "read")
	if allowed {
		t.Error("Viewer should not have access initially")
	}

	updatedPolicy := `p, admin, /api/v1/*, *
p, viewer, /api/v1/backups, read
`
	if err := os.WriteFile(policyPath, []byte(updatedPolicy), 0644); err != nil {
		t.Fatalf("Failed to update policy file: %v", err)
	}

	if err := enforcer.LoadPolicy(); err != nil {
		t.Fatalf("LoadPolicy() error = %v", err)
	}

	allowed, _ = enforcer.Enforce("viewer", "/api/v1/backups", "read")
	if !allowed {
		t.Error("Viewer should have access after policy reload")
	}
}

func TestEnforcer_LoadPolicy_CacheCleared(t *testing.T) {
	policyContent := `p, admin, /api/v1/*, *
p, tester, /api/v1/backups, read
`
	policyPath := setupTempPolicyFile(t, policyContent)

	ctx := context.Background()
	config := &EnforcerConfig{
		PolicyPath:   policyPath,
		CacheEnabled: true,
		AutoReload:   false,
	}
	enforcer, err := NewEnforcer(ctx, config)
	if err != nil {
		t.Fatalf("NewEnforcer() error = %v", err)
	}
	defer enforcer.Close()

	// Warm the cache
	allowed, _ := enforcer.Enforce("tester", "/api/v1/backups", "read")
	if !allowed {
		t.Error("Tester should have access initially")
	}

	if err := os.WriteFile(policyPath, []byte("p, admin, /api/v1/*, *\n"), 0644); err != nil {
		t.Fatalf("Failed to update policy file: %v", err)
	}

	if err := enforcer.LoadPolicy(); err != nil {
		t.Fatalf("LoadPolicy() error = %v", err)
	}

	allowed, _ = enforcer.Enforce("tester", "/api/v1/backups", "read")
	if allowed {
		t.Error("Tester should not have access after policy reload")
	}
}
