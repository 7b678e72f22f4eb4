package service

import (
	"time"
)

// 每月按 30 天计，不做日历月对齐
const daysPerMonth = 30

func addMonths(t time.Time, months int) time.Time {
	return t.Add(time.Duration(months) * daysPerMonth * 24 * time.Hour)
}

// NextMembership 计算支付成功后的新到期时间。
//
// 续费同级（当前等级等于购买等级且未过期）：在原到期时间上追加。
// 升级 / 降级 / 首次购买 / 已过期：从 now 重新起算，覆盖旧套餐。
func NextMembership(currentLevel string, currentExpireAt *time.Time, paidLevel string, paidMonths int, now time.Time) time.Time {
	isRenewal := currentLevel == paidLevel &&
		currentExpireAt != nil &&
		currentExpireAt.After(now)

	base := now
	if isRenewal {
		base = *currentExpireAt
	}
	return addMonths(base, paidMonths)
}
