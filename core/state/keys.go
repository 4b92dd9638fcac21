package state

var (
	accountPrefix      = []byte("accounts/")
	businessPrefix     = []byte("patronage/business/")
	subscriptionPrefix = []byte("patronage/subscription/")
	relationshipPrefix = []byte("patronage/relationship/")
	paramsKey          = []byte("patronage/params")
)

func accountKey(addr [20]byte) []byte {
	return appendKey(accountPrefix, addr[:])
}

func businessKey(owner [20]byte) []byte {
	return appendKey(businessPrefix, owner[:])
}

// subscriptionKey composes patron before business; relationshipKey composes
// business before patron. The orderings differ on purpose and must not be
// swapped: lookups depend on them.
func subscriptionKey(patron [20]byte, business [20]byte) []byte {
	return appendKey(subscriptionPrefix, patron[:], business[:])
}

func relationshipKey(business [20]byte, patron [20]byte) []byte {
	return appendKey(relationshipPrefix, business[:], patron[:])
}

func appendKey(prefix []byte, parts ...[]byte) []byte {
	size := len(prefix)
	for _, part := range parts {
		size += len(part)
	}
	key := make([]byte, 0, size)
	key = append(key, prefix...)
	for _, part := range parts {
		key = append(key, part...)
	}
	return key
}
