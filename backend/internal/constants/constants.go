package constants

// Canned Thai replies. These mirror the shop's original voice and are not
// translated in code
const (
	// ReplyUnknownName is sent when the user asks their name before telling it
	ReplyUnknownName = "ขอโทษครับ ฉันไม่ทราบชื่อของคุณ"
	// ReplyNameMissing is sent when a name statement carries no actual name
	ReplyNameMissing = "ไม่สามารถระบุชื่อได้ กรุณาระบุชื่อของคุณครับ"
	// ReplyMenuPrompt heads the quick-reply product menu
	ReplyMenuPrompt = "ลูกค้าสนใจสินค้าแบบไหน:"
	// ReplyAskBudget asks for a price cap after a search
	ReplyAskBudget = "ลูกค้ามีงบประมาณราคาไม่เกินเท่าไหร่ครับ?\nหรือจะเลือกดูทั้งหมด(show all)ก็ได้ครับ"
	// ReplyNoProducts is sent when a catalog search yields nothing usable
	ReplyNoProducts = "ขออภัย ไม่มีรายการสินค้าที่ตรงกับความต้องการของคุณครับ"
	// ReplyDegraded is the apology for a failed or timed-out generation.
	// Turns that end here are never written back to the cache
	ReplyDegraded = "ขอโทษด้วย ฉันไม่สามารถให้คำตอบนี้ได้"
)

// PoliteSuffix is appended to cached and generated answers
const PoliteSuffix = " ครับ"
