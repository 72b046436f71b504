package philosophers

// forkState is the three-bit per-neighbour state Chandy-Misra's hygienic
// dining philosophers protocol tracks: whether this philosopher currently
// holds the token for this edge, whether it holds the fork, and whether a
// held fork is dirty (used since the last time it was sent).
type forkState byte

const (
	maskHaveToken forkState = 0x1
	maskHaveFork  forkState = 0x2
	maskIsDirty   forkState = 0x4
)

func (s forkState) haveToken() bool { return s&maskHaveToken != 0 }
func (s forkState) haveFork() bool  { return s&maskHaveFork != 0 }
func (s forkState) isDirty() bool   { return s&maskIsDirty != 0 }

func (s forkState) withToken() forkState    { return s | maskHaveToken }
func (s forkState) withoutToken() forkState { return s &^ maskHaveToken }
func (s forkState) withFork() forkState     { return s | maskHaveFork }
func (s forkState) withoutFork() forkState  { return s &^ maskHaveFork }
func (s forkState) dirty() forkState        { return s | maskIsDirty }
func (s forkState) clean() forkState        { return s &^ maskIsDirty }
