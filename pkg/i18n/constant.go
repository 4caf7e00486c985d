package i18n

var ALLOW_LANG = map[string]bool{
	"en":    true,
	"zh-CN": true,
}

const DEFAULT_LANG = "en"

const (
	MESSAGE_SUCCESS = "message.success"
	MESSAGE_CREATED = "message.created"

	ERROR_INTERNAL          = "error.internal"
	ERROR_NOT_FOUND         = "error.notfound"
	ERROR_INVALIDARGUMENT   = "error.invalidargument"
	ERROR_VALIDATION        = "error.validation"
	ERROR_UNAUTHORIZED      = "error.unauthorized"
	ERROR_FORBIDDEN         = "error.forbidden"
	ERROR_TOO_MANY_REQUESTS = "error.tooManyRequests"
	ERROR_INVALID_TOKEN     = "error.invalid.token"

	ERROR_LOGIN_ACCOUNT_INCORRECT = "error.login.account.incorrect"
	ERROR_STATUS_TRANSITION       = "error.document.status.transition"
	ERROR_UNSUPPORTED_ACTION      = "error.unsupported.action"
	ERROR_FILE_READ_FAIL          = "error.file.read_fail"
	ERROR_SECRET_STORE            = "error.secret.store"
	ERROR_CREDENTIAL_REJECTED     = "error.credential.rejected"

	FIELD_EMAIL_TAKEN       = "field.email.taken"
	FIELD_NAME_TAKEN        = "field.name.taken"
	FIELD_REFERENCE_MISSING = "field.reference.missing"
	FIELD_INVALID_API_KEY   = "field.api_key.invalid"
	FIELD_UNKNOWN_PARSER    = "field.parser.unknown"

	// FIELD_RULE_PREFIX joins a binding rule tag, e.g. field.rule.required.
	FIELD_RULE_PREFIX = "field.rule."
)
