//go:build (atomics_asm && !amd64) || (atomics_interlocked && !windows) || (atomics_intrinsic && atomics_asm) || (atomics_intrinsic && atomics_interlocked) || (atomics_asm && atomics_interlocked)

package backend

// This file only builds when the requested backend cannot serve the target
// or more than one backend tag is set. The reference below is undefined on
// purpose so the build stops here with its name in the error.
var _ = atomics_backend_unavailable_for_this_target_or_tags_conflict
