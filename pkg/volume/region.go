package volume

// Region is an axis-aligned box in voxel coordinates: origin and size.
type Region struct {
	X, Y, Z int
	W, H, D int
}

func (r *Region) contains(x, y, z int) bool {
	return x >= r.X && x < r.X+r.W &&
		y >= r.Y && y < r.Y+r.H &&
		z >= r.Z && z < r.Z+r.D
}

func (r *Region) count() int {
	return r.W * r.H * r.D
}

// floorDiv rounds the quotient toward minus infinity.
func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func index3D(w, h, d, x, y, z int) int {
	return x + y*w + z*w*h
}

// VoxelToChunkCoords converts voxel to chunk coordinates. Negative
// coordinates floor toward minus infinity.
func (v *Volume) VoxelToChunkCoords(x, y, z int) (cx, cy, cz int) {
	return floorDiv(x, v.edge), floorDiv(y, v.edge), floorDiv(z, v.edge)
}

// VoxelToChunkRegion converts a voxel region to the region of chunks
// that include the given voxels.
func (v *Volume) VoxelToChunkRegion(r Region) Region {
	minX, minY, minZ := v.VoxelToChunkCoords(r.X, r.Y, r.Z)
	maxX, maxY, maxZ := v.VoxelToChunkCoords(r.X+r.W-1, r.Y+r.H-1, r.Z+r.D-1)
	return Region{
		X: minX, Y: minY, Z: minZ,
		W: maxX - minX + 1,
		H: maxY - minY + 1,
		D: maxZ - minZ + 1,
	}
}
