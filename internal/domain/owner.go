package domain

// OwnerScope identifies who owns stored sessions: a user plus the workspace
// they are acting in. It is the sole filter predicate for both direct fetch
// and the realtime summary subscription.
type OwnerScope struct {
	UID         string
	WorkspaceID string
	Email       string
}

// OwnerID flattens the scope into the single storage key. A personal scope
// is keyed by the user id, a workspace scope by "team-<workspaceID>" so a
// user's personal sessions and workspace sessions never collide.
func (o OwnerScope) OwnerID() string {
	if o.WorkspaceID != "" {
		return "team-" + o.WorkspaceID
	}
	return o.UID
}

// Same reports whether two scopes resolve to the same owner identity.
func (o OwnerScope) Same(other OwnerScope) bool {
	return o.OwnerID() == other.OwnerID()
}
