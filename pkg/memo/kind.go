package memo

// Kind is the classification of a task protocol event carried inside a
// payment memo.
type Kind byte

// Possible event kinds.
const (
	Unknown Kind = iota
	Proposal
	Acceptance
	Refusal
	VerificationPrompt
	VerificationResponse
	Reward
	TaskOutput
	UserGenesis
	RequestPostFiat
)

// Marker substrings counterpart systems embed into payload text. These
// are literal protocol contracts, matching must never be made fuzzier.
const (
	ProposalMarker             = "PROPOSED PF ___"
	ProposalShortMarker        = " .. "
	AcceptanceMarker           = "ACCEPTANCE REASON ___"
	RefusalMarker              = "REFUSAL REASON ___"
	VerificationPromptMarker   = "VERIFICATION PROMPT ___"
	VerificationResponseMarker = "VERIFICATION RESPONSE ___"
	RewardMarker               = "REWARD RESPONSE __"
	TaskOutputMarker           = "COMPLETION JUSTIFICATION ___"
	UserGenesisMarker          = "USER GENESIS __"
	RequestPostFiatMarker      = "REQUEST_POST_FIAT ___"
)

// Sentinel memo types that are not task identifiers.
const (
	InitiationRiteType = "INITIATION_RITE"
	ContextDocType     = "google_doc_context_link"
)

// String implements the fmt.Stringer interface.
func (k Kind) String() string {
	switch k {
	case Proposal:
		return "PROPOSAL"
	case Acceptance:
		return "ACCEPTANCE"
	case Refusal:
		return "REFUSAL"
	case VerificationPrompt:
		return "VERIFICATION_PROMPT"
	case VerificationResponse:
		return "VERIFICATION_RESPONSE"
	case Reward:
		return "REWARD"
	case TaskOutput:
		return "TASK_OUTPUT"
	case UserGenesis:
		return "USER_GENESIS"
	case RequestPostFiat:
		return "REQUEST_POST_FIAT"
	default:
		return "UNKNOWN"
	}
}
