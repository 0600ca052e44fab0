package zkinput

// Circuit-fixed pad lengths and bases. Every value here is load-bearing:
// it must match the circuit bit-for-bit, not merely be "large enough".
const (
	SubPadLen      = 126
	NoncePadLen    = 44
	EvPadLen       = 53
	AudPadLen      = 160
	IssHashPad     = 224
	KcNameHashPad  = 32
	KcValueHashPad = 115
	AudValueHashPad = 145
	HeaderHashPad  = 248

	ShaPaddedJWTLen = 1600

	// InBase is the bit width used when field-hashing raw ASCII bytes.
	InBase = 8
	// OutBase is the field-packing width consumed by Poseidon.
	OutBase = 248

	// RSALimbBits is the width of one RSA modulus/signature limb.
	RSALimbBits = 64
)
