/*
Package maglev implements Maglev consistent hashing lookup table.

Maglev hashing maps a fixed size space of table slots onto a dynamic set of
named backends. Every backend derives its own preference permutation over the
slots from the digest of its name, and the table is populated by letting the
backends claim their most preferred free slot in strict round-robin order.

Two properties follow from that:
1) Every backend owns almost the same number of slots: owned counts never
differ by more than one.
2) When a backend is added or removed only a small fraction of slots (close to
1/N) changes its owner, while the permutations of all other backends stay the
same.

Independent processes that share the same backend list (in the same order), the
same table size and the same hash function compute bit-identical tables, so
they route equally without any coordination.

The table does not hash request keys. Callers map their own keys into
[0, Size()) with any stable hash and a modulo reduction and then call Lookup().

For more theory about the subject please see the original paper:
https://research.google.com/pubs/pub44824.html

Table size must be prime. That guarantees that each permutation visits every
slot exactly once. It is recommended to pick a size at least a hundred times
greater than the expected number of backends; see SizeFor().

Table mutations rebuild the lookup array aside and then swap it in, so
concurrent Lookup() calls never observe partially populated table.
*/
package maglev
