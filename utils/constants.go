// File: utils/constants.go
package utils

import "time"

// LedgerPrefix is the prefix used for Redis sent-ledger keys.
const LedgerPrefix = "reminder:sent:"

// WisdomCachePrefix is the prefix used for the generated daily wisdom.
const WisdomCachePrefix = "wisdom:day:"

// WisdomCacheTTL keeps a generated quote slightly longer than one day.
const WisdomCacheTTL = 36 * time.Hour
