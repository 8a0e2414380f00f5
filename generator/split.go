package generator

// SplitSubBatches 将一个批次的目标条目数切分为并发子批次。
// n ≤ maxPerBatch 时产出单个大小为 n 的子批次；否则产出恰好
// maxPerBatch 个子批次，每个大小 n/maxPerBatch，末个吸收余数。
// 各子批次大小之和恒等于 n，子批次数量不超过 maxPerBatch。
func SplitSubBatches(n, maxPerBatch int) []int {
	if n <= 0 || maxPerBatch <= 0 {
		return nil
	}
	if n <= maxPerBatch {
		return []int{n}
	}

	size := n / maxPerBatch
	sizes := make([]int, maxPerBatch)
	for i := range sizes {
		sizes[i] = size
	}
	sizes[maxPerBatch-1] += n % maxPerBatch
	return sizes
}
