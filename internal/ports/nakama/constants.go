package nakama

// RpcQuickMatch is the Nakama RPC id clients call to find or create a
// lobby-capable match.
const RpcQuickMatch = "quick_match"

// MatchNameBurraco is the authoritative match handler name registered with
// Nakama.
const MatchNameBurraco = "burraco_match"

// MaxSeats is the table capacity; rounds start with 2, 4 or 6 players.
const MaxSeats = 6

// Op codes for client messages and server events.
const (
	// Client -> Server
	OpStartRound  int64 = 1
	OpDrawPile    int64 = 2
	OpTakeDiscard int64 = 3
	OpPlayMeld    int64 = 4
	OpExtendMeld  int64 = 5
	OpReplaceWild int64 = 6
	OpDiscard     int64 = 7

	// Server -> Client events
	OpPlayerJoined   int64 = 101
	OpPlayerLeft     int64 = 102
	OpRoundStarted   int64 = 103
	OpHandDealt      int64 = 104 // sent privately
	OpPileDrawn      int64 = 105
	OpDiscardTaken   int64 = 106
	OpMeldPlayed     int64 = 107
	OpMeldExtended   int64 = 108
	OpWildReplaced   int64 = 109
	OpCardDiscarded  int64 = 110
	OpReserveClaimed int64 = 111
	OpRoundEnded     int64 = 112
	OpMatchEnded     int64 = 113
	OpViewUpdate     int64 = 114 // sent privately after every mutation
	OpGameError      int64 = 115 // sent privately on rejected actions
)
