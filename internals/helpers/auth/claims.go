package helper

// Session token claim names, shared by the issuer and AuthJWT.
const (
	ClaimUserID   = "id"
	ClaimSubject  = "sub"
	ClaimRole     = "role"
	ClaimSchoolID = "school_id"
	ClaimPhone    = "phone"
	ClaimIssuedAt = "iat"
	ClaimExpires  = "exp"
	ClaimTokenID  = "jti"
)
