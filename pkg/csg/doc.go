// Package csg implements Boolean operations (intersection, union and
// difference) on triangulated solids using the polyhedral classification
// algorithm of Laidlaw, Trumbore and Hughes ("Constructive Solid Geometry
// for Polyhedral Objects", SIGGRAPH 1986).
//
// Faces of each solid are split along the intersection curve with the other
// solid, every resulting fragment is classified as inside, outside or on the
// boundary of the opposing solid, and the fragments are selected per
// operation to assemble the result.
//
// Solids are stored as parallel position, color and index buffers. The
// engine never mutates its inputs: a Modeller works on private copies.
package csg
