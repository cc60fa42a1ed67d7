// Package point defines the simulated data points exposed by the virtual
// field device: the nine object categories ({analog, binary, multistate} ×
// {input, output, value}), the typed point value, the 16-slot priority
// arbitration model used by commandable points, and the registry that holds
// the live point set.
//
// Input points carry a single scalar updated only by the simulation engine.
// Output and value points are commandable: their externally observed present
// value is never stored directly — it is derived from the priority array and
// the relinquish default on every read.
package point
