package model

// Post is a main post or sub-post record.
// A zero Timestamp is the sentinel for "does not exist".
type Post struct {
	Content   string `json:"content"`
	Timestamp uint32 `json:"timestamp"`
	Upvotes   uint32 `json:"upvotes"`
	Downvotes uint32 `json:"downvotes"`
}

// Exists reports whether the record was ever created.
func (p Post) Exists() bool {
	return p.Timestamp != 0
}

// PostKey addresses a post record by its composite key.
// Sub is 0 for main posts.
type PostKey struct {
	Group   GroupID
	Post    PostID
	SubPost SubPostID
}

// MainPostKey returns the key of a main post.
func MainPostKey(group GroupID, post PostID) PostKey {
	return PostKey{Group: group, Post: post}
}

// SubPostKey returns the key of a sub-post.
func SubPostKey(group GroupID, post PostID, sub SubPostID) PostKey {
	return PostKey{Group: group, Post: post, SubPost: sub}
}

// IsSubPost reports whether the key names a sub-post.
func (k PostKey) IsSubPost() bool {
	return k.SubPost != 0
}

// Ledger holds the forum-wide singleton state set by initialization.
type Ledger struct {
	Oracle       Address `json:"oracle"`
	Admin        Address `json:"admin"`
	GroupCounter uint64  `json:"group_counter"`
}

// GroupInfo is a read projection of one registered group.
type GroupInfo struct {
	ID          GroupID `json:"id"`
	Name        string  `json:"name"`
	PostCounter uint64  `json:"post_counter"`
}

// PostView is a read projection of a main post together with its sub-post slot.
type PostView struct {
	ID      PostID `json:"id"`
	Post    Post   `json:"post"`
	SubPost Post   `json:"sub_post"`
}
