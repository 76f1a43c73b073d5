/*
Package sbt lays out and maintains shader binding tables for Vulkan ray tracing.

A table has four regions, one per GroupKind (ray generation, miss, hit and callable). Every region
is an array of fixed stride records: the opaque handle of a shader group, queried from a Pipeline,
followed by optional inline payload. The stride of a kind is

	AlignUp(payload + HandleSize, HandleAlignment)

and every region buffer starts at a multiple of BaseAlignment.

Engine.Build allocates one buffer per non-empty kind through a resource.Allocator, zero fills it
and writes the handles. Reserve records can be requested per kind so that Engine.Rebuild can later
grow a region in place, keeping its device address. Table.Regions returns the values passed to
vkCmdTraceRaysKHR; an empty kind yields the zero Region, which must still be passed.

Failures are soft: Build always returns a table, failed handle queries leave zeroed records and
are reported together with go.uber.org/multierr, and a Rebuild that does not fit leaves the table
untouched.
*/
package sbt
