package model

import "time"

// TabGroup represents a row in the `tab_groups` table. Groups are the
// top level of a user's workspace and order themselves via SortOrder.
//
// Fields:
//  ID        – UUID primary key.
//  UserID    – owning user.
//  Title     – display title of the group.
//  SortOrder – position of the group within the workspace.
//  CreatedAt – timestamp of creation.
//  UpdatedAt – timestamp of last update.
type TabGroup struct {
	ID        string    // tab_groups.id
	UserID    string    // tab_groups.user_id
	Title     string    // tab_groups.title
	SortOrder int       // tab_groups.sort_order
	CreatedAt time.Time // tab_groups.created_at
	UpdatedAt time.Time // tab_groups.updated_at
}

// Tab represents a row in the `tabs` table. A tab belongs to exactly
// one group and carries the environments (concrete URLs) underneath it.
type Tab struct {
	ID         string    // tabs.id
	TabGroupID string    // tabs.tab_group_id
	Title      string    // tabs.title
	SortOrder  int       // tabs.sort_order
	CreatedAt  time.Time // tabs.created_at
	UpdatedAt  time.Time // tabs.updated_at
}

// Environment represents a row in the `environments` table. Each
// environment is a named URL hanging off a tab (e.g. dev/staging/prod
// variants of the same service).
type Environment struct {
	ID        string    // environments.id
	TabID     string    // environments.tab_id
	Name      string    // environments.name
	URL       string    // environments.url
	CreatedAt time.Time // environments.created_at
	UpdatedAt time.Time // environments.updated_at
}

// TabGroupSummary aggregates per-group counts for the workspace
// overview endpoint.
type TabGroupSummary struct {
	TabGroupID       string // aggregated tab_groups.id
	Title            string // tab_groups.title
	TabCount         int    // number of tabs in the group
	EnvironmentCount int    // number of environments across those tabs
}
