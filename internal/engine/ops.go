package engine

// Operation names used in logs and metrics.
const (
	OpInit                = "init"
	OpCreateGroup         = "create_group"
	OpCreateMainPost      = "create_main_post"
	OpCreateSubPost       = "create_sub_post"
	OpVoteOnPost          = "vote_on_post"
	OpVoteOnSubPost       = "vote_on_sub_post"
	OpDeleteVoteOnPost    = "delete_vote_on_post"
	OpDeleteVoteOnSubPost = "delete_vote_on_sub_post"
	OpAddMember           = "add_member"
	OpRemoveMember        = "remove_member"
	OpChangeAdmin         = "change_admin"
	OpChangeGroupAdmin    = "change_group_admin"
	OpAcceptGroupAdmin    = "accept_group_admin"
	OpIsGroupMember       = "is_group_member"
)
