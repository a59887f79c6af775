package utils

import (
	"fmt"
	"math/rand"

	"github.com/mozillazg/go-pinyin"
	"golang.org/x/crypto/bcrypt"

	"github.com/meeting-room-booking/backend/internal/domain"
)

var commonSurnames = []string{
	"王", "李", "张", "刘", "陈", "杨", "赵", "黄", "周", "吴",
	"徐", "孙", "胡", "朱", "高", "林", "何", "郭", "马", "罗",
}
var commonNameCharacters = []string{
	"伟", "强", "芳", "敏", "静", "丽", "刚", "杰", "娟", "勇",
	"艳", "涛", "明", "军", "磊", "洋", "霞", "飞", "玲", "超",
	"华", "平", "辉", "梅", "鑫", "龙", "鹏", "玉", "斌", "欣",
}

func GenerateRandomChineseName() string {
	surname := commonSurnames[rand.Intn(len(commonSurnames))]
	nameLength := rand.Intn(2) + 1
	name := ""

	for i := 0; i < nameLength; i++ {
		name += commonNameCharacters[rand.Intn(len(commonNameCharacters))]
	}
	return surname + name
}

var digits = "0123456789"

func GenerateUsernameFromChineseName(chineseName string) string {
	pinyinArray := pinyin.LazyConvert(chineseName, nil)
	username := ""

	for _, pinyin := range pinyinArray {
		length := rand.Intn(len(pinyin)) + 1
		username += pinyin[:length]
	}

	digitsLength := rand.Intn(3) + 1
	for i := 0; i < digitsLength; i++ {
		username += string(digits[rand.Intn(len(digits))])
	}

	return username
}

// GenerateRandomUser 生成一个随机的普通用户，用于填充测试数据
func GenerateRandomUser(password string, emailDomainName string) (*domain.User, error) {
	nickName := GenerateRandomChineseName()
	username := GenerateUsernameFromChineseName(nickName)
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:     username,
		PasswordHash: string(passwordHash),
		NickName:     nickName,
		Email:        username + "@" + emailDomainName,
	}

	return user, nil
}

// GenerateRandomCaptcha 生成 6 位数字验证码
func GenerateRandomCaptcha() string {
	return fmt.Sprintf("%06d", rand.Intn(1000000))
}
