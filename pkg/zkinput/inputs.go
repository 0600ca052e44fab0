package zkinput

// CircuitInputs is the witness-ready input map, one field per prover signal
// (spec.md §6). Every scalar is a decimal string and every array is an
// array of decimal strings, matching the prover's expected witness file
// format exactly; no field is a JSON number or a raw byte.
type CircuitInputs struct {
	AllInputsHash string `json:"all_inputs_hash"`
	Salt          string `json:"salt"`
	MaxEpoch      string `json:"max_epoch"`
	JWTRandomness string `json:"jwt_randomness"`

	EphPublicKey [2]string `json:"eph_public_key"`

	Modulus   []string `json:"modulus"`
	Signature []string `json:"signature"`

	PaddedUnsignedJWT  []string `json:"padded_unsigned_jwt"`
	PayloadLen         string   `json:"payload_len"`
	NumSha2Blocks      string   `json:"num_sha2_blocks"`
	PayloadStartIndex  string   `json:"payload_start_index"`

	ExtKc         []string `json:"ext_kc"`
	ExtKcLength   string   `json:"ext_kc_length"`
	KcIndexB64    string   `json:"kc_index_b64"`
	KcLengthB64   string   `json:"kc_length_b64"`
	KcNameLength  string   `json:"kc_name_length"`
	KcColonIndex  string   `json:"kc_colon_index"`
	KcValueIndex  string   `json:"kc_value_index"`
	KcValueLength string   `json:"kc_value_length"`

	ExtNonce         []string `json:"ext_nonce"`
	ExtNonceLength   string   `json:"ext_nonce_length"`
	NonceIndexB64    string   `json:"nonce_index_b64"`
	NonceLengthB64   string   `json:"nonce_length_b64"`
	NonceColonIndex  string   `json:"nonce_colon_index"`
	NonceValueIndex  string   `json:"nonce_value_index"`

	ExtEv         []string `json:"ext_ev"`
	ExtEvLength   string   `json:"ext_ev_length"`
	EvIndexB64    string   `json:"ev_index_b64"`
	EvLengthB64   string   `json:"ev_length_b64"`
	EvNameLength  string   `json:"ev_name_length"`
	EvColonIndex  string   `json:"ev_colon_index"`
	EvValueIndex  string   `json:"ev_value_index"`
	EvValueLength string   `json:"ev_value_length"`

	ExtAud         []string `json:"ext_aud"`
	ExtAudLength   string   `json:"ext_aud_length"`
	AudIndexB64    string   `json:"aud_index_b64"`
	AudLengthB64   string   `json:"aud_length_b64"`
	AudColonIndex  string   `json:"aud_colon_index"`
	AudValueIndex  string   `json:"aud_value_index"`
	AudValueLength string   `json:"aud_value_length"`

	IssIndexB64  string `json:"iss_index_b64"`
	IssLengthB64 string `json:"iss_length_b64"`
}
