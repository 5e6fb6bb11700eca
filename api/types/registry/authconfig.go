package registry

// AuthHeader is the name of the header carrying the opaque, caller-encoded
// registry credential for pull and push requests. The client never decodes
// or validates its value.
const AuthHeader = "X-Registry-Auth"
