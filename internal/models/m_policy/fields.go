package m_policy

// Field name constants for the policy_cache table.
const (
	TableName = "policy_cache"

	PolicyType  = "policy_type"
	RemoteID    = "remote_id"
	ContentHash = "content_hash"
	Document    = "document"
	RefreshedAt = "refreshed_at"
)

var AllColumns = []string{
	PolicyType,
	RemoteID,
	ContentHash,
	Document,
	RefreshedAt,
}

// Policy type constants.
const (
	TypeShipping = "shipping"
	TypeReturn   = "return"
	TypePayment  = "payment"
)
