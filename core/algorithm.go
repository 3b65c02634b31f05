package core

// Algorithm 是推荐算法的封闭枚举。
// 用类型化常量替代字符串分发，保证每个取值都有对应的处理分支。
type Algorithm string

const (
	AlgorithmTrending      Algorithm = "TRENDING"      // 热门：全局热度 + 时间衰减，与请求用户无关
	AlgorithmContentBased  Algorithm = "CONTENT_BASED" // 内容：用户偏好画像与商品属性的相似度
	AlgorithmCollaborative Algorithm = "COLLABORATIVE" // 协同：共现用户的行为加权，反热门归一
	AlgorithmHybrid        Algorithm = "HYBRID"        // 混合：协同 + 内容 归一化加权
)

// Algorithms 返回全部已知算法（固定顺序，用于批量失效与校验）。
func Algorithms() []Algorithm {
	return []Algorithm{
		AlgorithmTrending,
		AlgorithmContentBased,
		AlgorithmCollaborative,
		AlgorithmHybrid,
	}
}

// ParseAlgorithm 校验并解析算法名。
// 空串返回默认算法 HYBRID；未知取值返回 ErrInvalidAlgorithm。
func ParseAlgorithm(s string) (Algorithm, error) {
	if s == "" {
		return AlgorithmHybrid, nil
	}
	switch Algorithm(s) {
	case AlgorithmTrending, AlgorithmContentBased, AlgorithmCollaborative, AlgorithmHybrid:
		return Algorithm(s), nil
	}
	return "", ErrInvalidAlgorithm
}

// Valid 判断算法取值是否已知。
func (a Algorithm) Valid() bool {
	switch a {
	case AlgorithmTrending, AlgorithmContentBased, AlgorithmCollaborative, AlgorithmHybrid:
		return true
	}
	return false
}
